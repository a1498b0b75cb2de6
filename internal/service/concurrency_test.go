package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaman_backend/internal/authz"
	"gaman_backend/internal/database"
	"gaman_backend/internal/database/testhelper"
	"gaman_backend/internal/model"
	"gaman_backend/internal/queue"
	"gaman_backend/internal/repository"
)

// These tests run the services against postgres with real transactions and
// race writers on the same rows. Each one checks that a denormalized counter
// still equals the count of the rows it summarizes.

type pgWorld struct {
	db        *sqlx.DB
	follows   *FollowService
	comments  *CommentService
	reactions *ReactionService
	posts     repository.PostRepository
}

func newPgWorld(t *testing.T) *pgWorld {
	t.Helper()
	db := testhelper.SetupTestDB(t)

	users := repository.NewUserRepository(db)
	actors := repository.NewActorRepository(db)
	follows := repository.NewFollowRepository(db)
	requests := repository.NewFollowRequestRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	events := repository.NewEventRepository(db)
	reactions := repository.NewReactionRepository(db)

	tx := database.NewTxRunner(db)
	authorizer := authz.New(follows)
	pub := queue.Discard{}
	log := zerolog.Nop()

	return &pgWorld{
		db:        db,
		follows:   NewFollowService(follows, requests, actors, users, tx, pub, log),
		comments:  NewCommentService(comments, posts, authorizer, tx, pub, log),
		reactions: NewReactionService(reactions, posts, comments, events, authorizer, tx, pub, log),
		posts:     posts,
	}
}

func (w *pgWorld) seedPost(t *testing.T, ownerID int64) int64 {
	t.Helper()
	post := &model.Post{OwnerColumns: model.OwnerColumns{UserID: &ownerID}, Privacy: model.PrivacyPublic, About: "race"}
	require.NoError(t, database.NewTxRunner(w.db).WithinTx(context.Background(), func(tx *sqlx.Tx) error {
		return w.posts.Create(context.Background(), tx, post)
	}))
	return post.ID
}

func (w *pgWorld) count(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, w.db.Get(&n, query, args...))
	return n
}

// race starts n goroutines at once and waits for all of them.
func race(n int, fn func(i int)) {
	var (
		start sync.WaitGroup
		done  sync.WaitGroup
	)
	start.Add(1)
	done.Add(n)
	for i := range n {
		go func() {
			defer done.Done()
			start.Wait()
			fn(i)
		}()
	}
	start.Done()
	done.Wait()
}

// =============================================================================
// COMMENTS
// =============================================================================

func TestConcurrency_RepliesRacingParentRemoval(t *testing.T) {
	// ARRANGE
	w := newPgWorld(t)
	ctx := context.Background()
	owner := testhelper.SeedUser(t, w.db, "owner", true)
	postID := w.seedPost(t, owner)

	var authors []int64
	for i := range 6 {
		authors = append(authors, testhelper.SeedUser(t, w.db, fmt.Sprintf("replier%d", i), true))
	}

	for round := range 5 {
		root, err := w.comments.Add(ctx, postID, owner, model.CreateCommentRequest{Text: fmt.Sprintf("root %d", round)})
		require.NoError(t, err)

		// ACT: the owner removes the root while others reply to it
		errs := make([]error, len(authors)+1)
		race(len(authors)+1, func(i int) {
			if i == len(authors) {
				_, errs[i] = w.comments.Remove(ctx, root.ID, owner)
				return
			}
			_, errs[i] = w.comments.Add(ctx, postID, authors[i], model.CreateCommentRequest{Text: "reply", ParentID: &root.ID})
		})

		// ASSERT
		require.NoError(t, errs[len(authors)], "round %d: removal", round)
		for i, err := range errs[:len(authors)] {
			if err != nil {
				assert.ErrorIs(t, err, model.ErrCommentNotFound, "round %d: reply %d", round, i)
			}
		}
	}

	stored := w.count(t, `SELECT comments FROM posts WHERE id = $1`, postID)
	actual := w.count(t, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID)
	assert.Zero(t, actual, "every root was removed with its replies")
	assert.Equal(t, actual, stored)
}

// =============================================================================
// REACTIONS
// =============================================================================

func TestConcurrency_PostReactionToggles(t *testing.T) {
	// ARRANGE
	w := newPgWorld(t)
	ctx := context.Background()
	owner := testhelper.SeedUser(t, w.db, "owner", true)
	postID := w.seedPost(t, owner)

	var fans []int64
	for i := range 8 {
		fans = append(fans, testhelper.SeedUser(t, w.db, fmt.Sprintf("fan%d", i), true))
	}
	indecisive := fans[0]

	// ACT: every fan reacts once and the first one toggles five more times
	errs := make([]error, len(fans)+5)
	race(len(errs), func(i int) {
		user := indecisive
		if i < len(fans) {
			user = fans[i]
		}
		_, errs[i] = w.reactions.TogglePostReaction(ctx, user, postID, model.ReactionLike)
	})

	// ASSERT
	for _, err := range errs {
		require.NoError(t, err)
	}
	stored := w.count(t, `SELECT reactions FROM posts WHERE id = $1`, postID)
	actual := w.count(t, `SELECT COUNT(*) FROM post_reactions WHERE target_id = $1`, postID)
	assert.Equal(t, actual, stored)
	assert.Equal(t, int64(len(fans)-1), actual, "six toggles leave the indecisive fan without a reaction")
}

// =============================================================================
// FOLLOWS
// =============================================================================

func TestConcurrency_OppositeFollowRequests(t *testing.T) {
	// ARRANGE: two private persons
	w := newPgWorld(t)
	ctx := context.Background()
	a := testhelper.SeedUser(t, w.db, "a", false)
	b := testhelper.SeedUser(t, w.db, "b", false)

	// ACT: each asks to follow the other at the same time
	errs := make([]error, 2)
	race(2, func(i int) {
		if i == 0 {
			_, errs[i] = w.follows.RequestOrFollow(ctx, a, model.PersonRef(b))
		} else {
			_, errs[i] = w.follows.RequestOrFollow(ctx, b, model.PersonRef(a))
		}
	})

	// ASSERT: one request wins, the other sees the pair as taken
	var failed int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, model.ErrDuplicateRequest)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(1), w.count(t, `SELECT COUNT(*) FROM follow_requests`))
}

func TestConcurrency_DoubleFollowKeepsCounters(t *testing.T) {
	// ARRANGE
	w := newPgWorld(t)
	ctx := context.Background()
	fan := testhelper.SeedUser(t, w.db, "fan", true)
	star := testhelper.SeedUser(t, w.db, "star", true)

	for round := range 5 {
		// ACT: two follow toggles from the same person land together
		errs := make([]error, 2)
		race(2, func(i int) {
			_, errs[i] = w.follows.RequestOrFollow(ctx, fan, model.PersonRef(star))
		})

		// ASSERT
		for _, err := range errs {
			require.NoError(t, err, "round %d", round)
		}
		edges := w.count(t, `SELECT COUNT(*) FROM follow_edges WHERE follower_id = $1 AND target_kind = 'person' AND target_id = $2`, fan, star)
		assert.LessOrEqual(t, edges, int64(1), "round %d", round)
		assert.Equal(t, edges, w.count(t, `SELECT follower_count FROM users WHERE id = $1`, star), "round %d", round)
		assert.Equal(t, edges, w.count(t, `SELECT following_count FROM users WHERE id = $1`, fan), "round %d", round)

		if edges == 1 {
			_, err := w.follows.RequestOrFollow(ctx, fan, model.PersonRef(star))
			require.NoError(t, err)
		}
	}
}

func TestConcurrency_DistinctFollowersOfOneClub(t *testing.T) {
	w := newPgWorld(t)
	ctx := context.Background()
	trainer := testhelper.SeedUser(t, w.db, "trainer", true)
	club := testhelper.SeedClub(t, w.db, "dojo", trainer)

	var fans []int64
	for i := range 10 {
		fans = append(fans, testhelper.SeedUser(t, w.db, fmt.Sprintf("member%d", i), true))
	}

	errs := make([]error, len(fans))
	race(len(fans), func(i int) {
		_, errs[i] = w.follows.RequestOrFollow(ctx, fans[i], model.ClubRef(club))
	})

	require.NoError(t, errors.Join(errs...))
	assert.Equal(t, int64(len(fans)), w.count(t, `SELECT follower_count FROM clubs WHERE id = $1`, club))
	assert.Equal(t, int64(len(fans)), w.count(t, `SELECT COUNT(*) FROM follow_edges WHERE target_kind = 'club' AND target_id = $1`, club))
}
