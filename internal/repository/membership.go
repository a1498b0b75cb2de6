package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"gaman_backend/internal/model"
)

const invitationColumns = `id, club_id, issued_by, invited_id, used, created_at, updated_at`

type membershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

// Invite records the invitation and the inactive membership it stands for.
// A second invitation to the same club yields model.ErrInvitationExists.
func (r *membershipRepository) Invite(ctx context.Context, tx *sqlx.Tx, clubID, issuedBy, invitedID int64) (*model.ClubInvitation, error) {
	query := `
		INSERT INTO club_invitations (club_id, issued_by, invited_id)
		VALUES ($1, $2, $3)
		RETURNING ` + invitationColumns

	var inv model.ClubInvitation
	err := tx.GetContext(ctx, &inv, query, clubID, issuedBy, invitedID)
	if violatedConstraint(err) == "club_invitations_invited_fk" {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, mapError(err, "insert club invitation", model.ErrActorNotFound, model.ErrInvitationExists)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO club_members (club_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (club_id, user_id) DO NOTHING`, clubID, invitedID)
	if err != nil {
		return nil, fmt.Errorf("insert club member: %w", err)
	}
	return &inv, nil
}

// GetInvitationForUpdate loads the invitation and locks it until tx ends.
func (r *membershipRepository) GetInvitationForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*model.ClubInvitation, error) {
	var inv model.ClubInvitation
	err := tx.GetContext(ctx, &inv, `SELECT `+invitationColumns+` FROM club_invitations WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, mapError(err, "get club invitation", model.ErrInvitationNotFound, nil)
	}
	return &inv, nil
}

// Confirm marks the invitation used and activates the membership.
func (r *membershipRepository) Confirm(ctx context.Context, tx *sqlx.Tx, inv *model.ClubInvitation) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE club_invitations SET used = TRUE, updated_at = NOW() WHERE id = $1 AND NOT used`, inv.ID)
	if err != nil {
		return fmt.Errorf("mark invitation used: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrInvitationUsed
	}

	result, err = tx.ExecContext(ctx,
		`UPDATE club_members SET active = TRUE, updated_at = NOW() WHERE club_id = $1 AND user_id = $2`,
		inv.ClubID, inv.InvitedID)
	if err != nil {
		return fmt.Errorf("activate club member: %w", err)
	}
	if rows, err = result.RowsAffected(); err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrMemberNotFound
	}
	return nil
}

// RemoveMember deletes the membership together with the invitation behind it,
// so the person can be invited again.
func (r *membershipRepository) RemoveMember(ctx context.Context, tx *sqlx.Tx, clubID, userID int64) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM club_members WHERE club_id = $1 AND user_id = $2`, clubID, userID)
	if err != nil {
		return fmt.Errorf("delete club member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrMemberNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM club_invitations WHERE club_id = $1 AND invited_id = $2`, clubID, userID); err != nil {
		return fmt.Errorf("delete club invitation: %w", err)
	}
	return nil
}

// ListMembers returns a club's members, newest first, active or not.
func (r *membershipRepository) ListMembers(ctx context.Context, clubID int64, cursor *model.Cursor, limit int) ([]model.ClubMember, *model.Cursor, error) {
	q := psql.Select("m.id", "m.active", "m.created_at", "u.id AS user_id", "u.username", "u.display_name", "u.photo_url").
		From("club_members m").
		Join("users u ON u.id = m.user_id").
		Where(squirrel.Eq{"m.club_id": clubID}).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(limit + 1))
	if cursor != nil {
		q = q.Where(keysetBefore("m", cursor))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, nil, fmt.Errorf("build club members query: %w", err)
	}

	type memberRow struct {
		ID          int64     `db:"id"`
		Active      bool      `db:"active"`
		CreatedAt   time.Time `db:"created_at"`
		UserID      int64     `db:"user_id"`
		Username    string    `db:"username"`
		DisplayName *string   `db:"display_name"`
		PhotoURL    *string   `db:"photo_url"`
	}

	var rows []memberRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list club members: %w", err)
	}

	rows, next := trimPage(rows, limit, func(m memberRow) model.Cursor { return model.Cursor{CreatedAt: m.CreatedAt, ID: m.ID} })

	members := make([]model.ClubMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, model.ClubMember{
			User: model.UserSummary{
				ID:          row.UserID,
				Username:    row.Username,
				DisplayName: row.DisplayName,
				PhotoURL:    row.PhotoURL,
			},
			Active:   row.Active,
			JoinedAt: row.CreatedAt,
		})
	}
	return members, next, nil
}

// PendingInvitations lists unused invitations addressed to invitedID.
func (r *membershipRepository) PendingInvitations(ctx context.Context, invitedID int64) ([]model.ClubInvitation, error) {
	var invitations []model.ClubInvitation
	err := r.db.SelectContext(ctx, &invitations,
		`SELECT `+invitationColumns+` FROM club_invitations WHERE invited_id = $1 AND NOT used ORDER BY created_at DESC, id DESC`,
		invitedID)
	if err != nil {
		return nil, fmt.Errorf("list club invitations: %w", err)
	}
	return invitations, nil
}
