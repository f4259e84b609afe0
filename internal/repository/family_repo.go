package repository

import (
	"context"
	"database/sql"
	"errors"

	"mygarage/internal/models"
)

// ErrFamilyMemberNotFound indicates a missing family membership row.
var ErrFamilyMemberNotFound = errors.New("family member not found")

// FamilyRepository persists family memberships.
type FamilyRepository struct {
	db *sql.DB
}

// NewFamilyRepository returns repository.
func NewFamilyRepository(db *sql.DB) *FamilyRepository {
	return &FamilyRepository{db: db}
}

// Add grants a member access to the owner's garage.
func (r *FamilyRepository) Add(ctx context.Context, member *models.FamilyMember) error {
	const query = `
		INSERT INTO family_members (owner_id, member_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (owner_id, member_id) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, member.OwnerID, member.MemberID).
		Scan(&member.ID, &member.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Membership already exists; treat as success.
		return nil
	}
	return err
}

// ListByOwner returns memberships with member emails resolved.
func (r *FamilyRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.FamilyMember, error) {
	const query = `
		SELECT f.id, f.owner_id, f.member_id, u.email, f.created_at
		FROM family_members f
		JOIN users u ON u.id = f.member_id
		WHERE f.owner_id = $1
		ORDER BY f.created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.MemberID, &m.MemberEmail, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// Remove revokes a membership. Only the owner may remove rows.
func (r *FamilyRepository) Remove(ctx context.Context, id, ownerID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM family_members WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFamilyMemberNotFound
	}
	return nil
}

// IsMember reports whether user belongs to the owner's family.
func (r *FamilyRepository) IsMember(ctx context.Context, ownerID, userID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM family_members WHERE owner_id = $1 AND member_id = $2
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ownerID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
