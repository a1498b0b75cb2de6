// Package testhelper starts one PostgreSQL container per test binary and
// hands out migrated, truncated connections to it.
package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"gaman_backend/internal/database"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// SetupTestDB returns a connection to a freshly truncated database. Tests are
// skipped under -short or when no container runtime is reachable.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		sharedDSN, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup test DB: %v", initErr)
	}

	db, err := sqlx.Connect("postgres", sharedDSN)
	if err != nil {
		t.Fatalf("testhelper: failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	truncate(t, db)
	return db
}

func truncate(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE notifications, club_members, club_invitations, event_reactions, comment_reactions, post_reactions,
		comments, follow_requests, follow_edges, events, posts, clubs, brands, users
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("testhelper: truncate: %v", err)
	}
}

func startContainerAndMigrate() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "gaman",
			"POSTGRES_PASSWORD": "gaman",
			"POSTGRES_DB":       "gaman_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	dsn := fmt.Sprintf("postgres://gaman:gaman@%s:%s/gaman_test?sslmode=disable", host, port.Port())

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return "", fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db.DB, zerolog.Nop()); err != nil {
		return "", err
	}
	return dsn, nil
}

// SeedUser inserts a person and returns its id.
func SeedUser(t *testing.T, db *sqlx.DB, username string, isPublic bool) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, `INSERT INTO users (username, is_public) VALUES ($1, $2) RETURNING id`, username, isPublic)
	if err != nil {
		t.Fatalf("testhelper: seed user %s: %v", username, err)
	}
	return id
}

// SeedBrand inserts a brand sponsored by sponsorID and returns its id.
func SeedBrand(t *testing.T, db *sqlx.DB, slug string, sponsorID int64) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, `INSERT INTO brands (sponsor_id, slugname, name) VALUES ($1, $2, $2) RETURNING id`, sponsorID, slug)
	if err != nil {
		t.Fatalf("testhelper: seed brand %s: %v", slug, err)
	}
	return id
}

// SeedClub inserts a club trained by trainerID and returns its id.
func SeedClub(t *testing.T, db *sqlx.DB, slug string, trainerID int64) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, `INSERT INTO clubs (trainer_id, slugname, name) VALUES ($1, $2, $2) RETURNING id`, trainerID, slug)
	if err != nil {
		t.Fatalf("testhelper: seed club %s: %v", slug, err)
	}
	return id
}
