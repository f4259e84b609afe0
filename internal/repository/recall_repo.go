package repository

import (
	"context"
	"database/sql"
	"errors"

	"mygarage/internal/models"
)

// ErrRecallNotFound indicates a missing recall row.
var ErrRecallNotFound = errors.New("recall not found")

// RecallRepository persists recalls and technical service bulletins.
type RecallRepository struct {
	db *sql.DB
}

// NewRecallRepository returns repository.
func NewRecallRepository(db *sql.DB) *RecallRepository {
	return &RecallRepository{db: db}
}

// Upsert inserts a recall or refreshes an existing campaign for the vehicle.
func (r *RecallRepository) Upsert(ctx context.Context, recall *models.Recall) error {
	const query = `
		INSERT INTO recalls (vehicle_id, campaign_number, component, summary, remedy, issued_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (vehicle_id, campaign_number) DO UPDATE SET
			component = EXCLUDED.component,
			summary = EXCLUDED.summary,
			remedy = EXCLUDED.remedy,
			issued_at = EXCLUDED.issued_at
		RETURNING id, acknowledged, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		recall.VehicleID,
		recall.CampaignNumber,
		recall.Component,
		recall.Summary,
		recall.Remedy,
		recall.IssuedAt,
	).Scan(&recall.ID, &recall.Acknowledged, &recall.CreatedAt)
}

// ListByVehicle returns recalls ordered newest first.
func (r *RecallRepository) ListByVehicle(ctx context.Context, vehicleID int64) ([]models.Recall, error) {
	const query = `
		SELECT id, vehicle_id, campaign_number, component, summary, remedy, issued_at, acknowledged, created_at
		FROM recalls
		WHERE vehicle_id = $1
		ORDER BY issued_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recalls []models.Recall
	for rows.Next() {
		var rec models.Recall
		if err := rows.Scan(
			&rec.ID,
			&rec.VehicleID,
			&rec.CampaignNumber,
			&rec.Component,
			&rec.Summary,
			&rec.Remedy,
			&rec.IssuedAt,
			&rec.Acknowledged,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		recalls = append(recalls, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recalls, nil
}

// GetByID fetches a single recall.
func (r *RecallRepository) GetByID(ctx context.Context, id int64) (*models.Recall, error) {
	const query = `
		SELECT id, vehicle_id, campaign_number, component, summary, remedy, issued_at, acknowledged, created_at
		FROM recalls
		WHERE id = $1
		LIMIT 1
	`
	var rec models.Recall
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.VehicleID,
		&rec.CampaignNumber,
		&rec.Component,
		&rec.Summary,
		&rec.Remedy,
		&rec.IssuedAt,
		&rec.Acknowledged,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecallNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Acknowledge marks a recall as seen by the owner.
func (r *RecallRepository) Acknowledge(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE recalls SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecallNotFound
	}
	return nil
}

// UpsertTSB inserts or refreshes a bulletin for the vehicle.
func (r *RecallRepository) UpsertTSB(ctx context.Context, tsb *models.TSB) error {
	const query = `
		INSERT INTO tsbs (vehicle_id, bulletin_number, component, summary, issued_at, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (vehicle_id, bulletin_number) DO UPDATE SET
			component = EXCLUDED.component,
			summary = EXCLUDED.summary,
			issued_at = EXCLUDED.issued_at
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		tsb.VehicleID,
		tsb.BulletinNumber,
		tsb.Component,
		tsb.Summary,
		tsb.IssuedAt,
	).Scan(&tsb.ID, &tsb.CreatedAt)
}

// ListTSBsByVehicle returns bulletins ordered newest first.
func (r *RecallRepository) ListTSBsByVehicle(ctx context.Context, vehicleID int64) ([]models.TSB, error) {
	const query = `
		SELECT id, vehicle_id, bulletin_number, component, summary, issued_at, created_at
		FROM tsbs
		WHERE vehicle_id = $1
		ORDER BY issued_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tsbs []models.TSB
	for rows.Next() {
		var t models.TSB
		if err := rows.Scan(
			&t.ID,
			&t.VehicleID,
			&t.BulletinNumber,
			&t.Component,
			&t.Summary,
			&t.IssuedAt,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		tsbs = append(tsbs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tsbs, nil
}
