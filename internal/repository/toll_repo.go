package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mygarage/internal/models"
)

// ErrTollTagNotFound indicates a missing toll tag row.
var ErrTollTagNotFound = errors.New("toll tag not found")

// TollRepository persists toll tags and their transactions.
type TollRepository struct {
	db *sql.DB
}

// NewTollRepository returns repository.
func NewTollRepository(db *sql.DB) *TollRepository {
	return &TollRepository{db: db}
}

// CreateTag registers a new transponder.
func (r *TollRepository) CreateTag(ctx context.Context, tag *models.TollTag) error {
	const query = `
		INSERT INTO toll_tags (owner_id, vehicle_id, tag_serial, issuer, active, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		tag.OwnerID,
		tag.VehicleID,
		tag.TagSerial,
		tag.Issuer,
		tag.Active,
	).Scan(&tag.ID, &tag.CreatedAt)
}

// GetTagByID fetches a single tag.
func (r *TollRepository) GetTagByID(ctx context.Context, id int64) (*models.TollTag, error) {
	const query = `
		SELECT id, owner_id, vehicle_id, tag_serial, issuer, active, created_at
		FROM toll_tags
		WHERE id = $1
		LIMIT 1
	`
	var tag models.TollTag
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&tag.ID,
		&tag.OwnerID,
		&tag.VehicleID,
		&tag.TagSerial,
		&tag.Issuer,
		&tag.Active,
		&tag.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTollTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetTagBySerial fetches a tag by its serial, used by the importer.
func (r *TollRepository) GetTagBySerial(ctx context.Context, ownerID int64, serial string) (*models.TollTag, error) {
	const query = `
		SELECT id, owner_id, vehicle_id, tag_serial, issuer, active, created_at
		FROM toll_tags
		WHERE owner_id = $1 AND tag_serial = $2
		LIMIT 1
	`
	var tag models.TollTag
	err := r.db.QueryRowContext(ctx, query, ownerID, serial).Scan(
		&tag.ID,
		&tag.OwnerID,
		&tag.VehicleID,
		&tag.TagSerial,
		&tag.Issuer,
		&tag.Active,
		&tag.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTollTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListTagsByOwner returns the owner's transponders.
func (r *TollRepository) ListTagsByOwner(ctx context.Context, ownerID int64) ([]models.TollTag, error) {
	const query = `
		SELECT id, owner_id, vehicle_id, tag_serial, issuer, active, created_at
		FROM toll_tags
		WHERE owner_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []models.TollTag
	for rows.Next() {
		var tag models.TollTag
		if err := rows.Scan(
			&tag.ID,
			&tag.OwnerID,
			&tag.VehicleID,
			&tag.TagSerial,
			&tag.Issuer,
			&tag.Active,
			&tag.CreatedAt,
		); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// AssignTag binds a tag to a vehicle.
func (r *TollRepository) AssignTag(ctx context.Context, tagID, vehicleID int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE toll_tags SET vehicle_id = $2 WHERE id = $1`, tagID, vehicleID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTollTagNotFound
	}
	return nil
}

// InsertTransaction records one toll charge.
func (r *TollRepository) InsertTransaction(ctx context.Context, tx *models.TollTransaction) error {
	const query = `
		INSERT INTO toll_transactions (tag_id, plaza, amount_cents, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		tx.TagID,
		tx.Plaza,
		tx.AmountCents,
		tx.OccurredAt,
	).Scan(&tx.ID, &tx.CreatedAt)
}

// ListTransactionsByVehicle returns charges for all tags on a vehicle within the range.
func (r *TollRepository) ListTransactionsByVehicle(ctx context.Context, vehicleID int64, from, to time.Time) ([]models.TollTransaction, error) {
	const query = `
		SELECT t.id, t.tag_id, t.plaza, t.amount_cents, t.occurred_at, t.created_at
		FROM toll_transactions t
		JOIN toll_tags g ON g.id = t.tag_id
		WHERE g.vehicle_id = $1
		  AND t.occurred_at >= $2
		  AND t.occurred_at < $3
		ORDER BY t.occurred_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.TollTransaction
	for rows.Next() {
		var tx models.TollTransaction
		if err := rows.Scan(
			&tx.ID,
			&tx.TagID,
			&tx.Plaza,
			&tx.AmountCents,
			&tx.OccurredAt,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// MonthlySummary aggregates charges per calendar month for a vehicle.
func (r *TollRepository) MonthlySummary(ctx context.Context, vehicleID int64) ([]models.TollMonthlySummary, error) {
	const query = `
		SELECT TO_CHAR(DATE_TRUNC('month', t.occurred_at), 'YYYY-MM') AS month,
		       COUNT(*) AS count,
		       COALESCE(SUM(t.amount_cents), 0) AS total_cents
		FROM toll_transactions t
		JOIN toll_tags g ON g.id = t.tag_id
		WHERE g.vehicle_id = $1
		GROUP BY 1
		ORDER BY 1 DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.TollMonthlySummary
	for rows.Next() {
		var s models.TollMonthlySummary
		if err := rows.Scan(&s.Month, &s.Count, &s.TotalCents); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}
