package service

import (
	"context"

	"go.uber.org/zap"

	"mygarage/internal/models"
	"mygarage/internal/recalls"
	"mygarage/internal/repository"
)

// RecallsService syncs and serves recalls and service bulletins.
type RecallsService struct {
	repo     *repository.RecallRepository
	feed     *recalls.Client
	vehicles *VehiclesService
	logger   *zap.Logger
}

// NewRecallsService builds service.
func NewRecallsService(repo *repository.RecallRepository, feed *recalls.Client, vehicles *VehiclesService, logger *zap.Logger) *RecallsService {
	return &RecallsService{
		repo:     repo,
		feed:     feed,
		vehicles: vehicles,
		logger:   logger,
	}
}

// ListRecalls returns stored recalls for an accessible vehicle.
func (s *RecallsService) ListRecalls(ctx context.Context, userID, vehicleID int64) ([]models.Recall, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	return s.repo.ListByVehicle(ctx, vehicleID)
}

// ListTSBs returns stored bulletins for an accessible vehicle.
func (s *RecallsService) ListTSBs(ctx context.Context, userID, vehicleID int64) ([]models.TSB, error) {
	if _, err := s.vehicles.Authorize(ctx, userID, vehicleID); err != nil {
		return nil, err
	}
	return s.repo.ListTSBsByVehicle(ctx, vehicleID)
}

// SyncResult reports how many feed entries were stored.
type SyncResult struct {
	Recalls int `json:"recalls"`
	TSBs    int `json:"tsbs"`
}

// Sync pulls the feed for the vehicle's make/model/year and upserts campaigns
// and bulletins by their external numbers.
func (s *RecallsService) Sync(ctx context.Context, userID, vehicleID int64) (*SyncResult, error) {
	vehicle, err := s.vehicles.Authorize(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	campaigns, err := s.feed.FetchRecalls(ctx, vehicle.Make, vehicle.Model, vehicle.Year)
	if err != nil {
		return nil, err
	}
	bulletins, err := s.feed.FetchTSBs(ctx, vehicle.Make, vehicle.Model, vehicle.Year)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{}
	for _, campaign := range campaigns {
		recall := &models.Recall{
			VehicleID:      vehicleID,
			CampaignNumber: campaign.CampaignNumber,
			Component:      campaign.Component,
			Summary:        campaign.Summary,
			Remedy:         campaign.Remedy,
			IssuedAt:       campaign.IssuedAt,
		}
		if err := s.repo.Upsert(ctx, recall); err != nil {
			return nil, err
		}
		result.Recalls++
	}
	for _, bulletin := range bulletins {
		tsb := &models.TSB{
			VehicleID:      vehicleID,
			BulletinNumber: bulletin.BulletinNumber,
			Component:      bulletin.Component,
			Summary:        bulletin.Summary,
			IssuedAt:       bulletin.IssuedAt,
		}
		if err := s.repo.UpsertTSB(ctx, tsb); err != nil {
			return nil, err
		}
		result.TSBs++
	}

	s.logger.Info("recall feed synced",
		zap.Int64("vehicle_id", vehicleID),
		zap.Int("recalls", result.Recalls),
		zap.Int("tsbs", result.TSBs))
	return result, nil
}

// Acknowledge marks a recall as seen; only users with access to the vehicle may ack.
func (s *RecallsService) Acknowledge(ctx context.Context, userID, recallID int64) error {
	recall, err := s.repo.GetByID(ctx, recallID)
	if err != nil {
		return err
	}
	if _, err := s.vehicles.Authorize(ctx, userID, recall.VehicleID); err != nil {
		return err
	}
	return s.repo.Acknowledge(ctx, recallID)
}
