package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mygarage/internal/models"
	"mygarage/internal/repository"
)

// ErrCannotShareWithSelf rejects adding yourself to your own family.
var ErrCannotShareWithSelf = errors.New("service: cannot add yourself as a family member")

// FamilyService manages garage sharing between accounts.
type FamilyService struct {
	family *repository.FamilyRepository
	users  UserRepository
	logger *zap.Logger
}

// NewFamilyService builds service.
func NewFamilyService(family *repository.FamilyRepository, users UserRepository, logger *zap.Logger) *FamilyService {
	return &FamilyService{
		family: family,
		users:  users,
		logger: logger,
	}
}

// AddMember grants an existing account, looked up by email, access to the
// owner's garage.
func (s *FamilyService) AddMember(ctx context.Context, ownerID int64, memberEmail string) (*models.FamilyMember, error) {
	member, err := s.users.GetByEmail(ctx, memberEmail)
	if err != nil {
		return nil, err
	}
	if member.ID == ownerID {
		return nil, ErrCannotShareWithSelf
	}

	entry := &models.FamilyMember{
		OwnerID:     ownerID,
		MemberID:    member.ID,
		MemberEmail: member.Email,
	}
	if err := s.family.Add(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("family member added",
		zap.Int64("owner_id", ownerID),
		zap.Int64("member_id", member.ID))
	return entry, nil
}

// ListMembers returns the owner's family.
func (s *FamilyService) ListMembers(ctx context.Context, ownerID int64) ([]models.FamilyMember, error) {
	return s.family.ListByOwner(ctx, ownerID)
}

// RemoveMember revokes a membership; owner-only.
func (s *FamilyService) RemoveMember(ctx context.Context, ownerID, membershipID int64) error {
	return s.family.Remove(ctx, membershipID, ownerID)
}
