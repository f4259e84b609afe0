package models

import "time"

// FamilyMember grants another user access to the owner's garage.
type FamilyMember struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"owner_id"`
	MemberID    int64     `db:"member_id" json:"member_id"`
	MemberEmail string    `db:"member_email" json:"member_email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Transfer statuses. Transitions are enforced in the service layer:
// pending may become accepted, declined or canceled; nothing else moves.
const (
	TransferStatusPending  = "pending"
	TransferStatusAccepted = "accepted"
	TransferStatusDeclined = "declined"
	TransferStatusCanceled = "canceled"
)

// Transfer is a pending or settled vehicle ownership hand-over.
type Transfer struct {
	ID         int64     `db:"id" json:"id"`
	VehicleID  int64     `db:"vehicle_id" json:"vehicle_id"`
	FromUserID int64     `db:"from_user_id" json:"from_user_id"`
	ToUserID   int64     `db:"to_user_id" json:"to_user_id"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ResolvedAt time.Time `db:"resolved_at" json:"resolved_at"`
}
