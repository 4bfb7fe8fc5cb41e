package model

import "time"

// PendingStatus is the lifecycle state of a queued match.
type PendingStatus string

// Pending match status constants.
const (
	PendingOpen     PendingStatus = "pending"
	PendingApproved PendingStatus = "approved"
	PendingRejected PendingStatus = "rejected"
)

// PendingMatch is a proposed but unapplied rule action awaiting human
// approval. The action fields are a snapshot taken at enqueue time, so a
// later rule edit never changes what an approval applies.
type PendingMatch struct {
	CreatedAt     time.Time
	ResolvedAt    *time.Time
	CategoryID    *int64
	VendorID      *int64
	StaffID       *int64
	TransactionID string
	Notes         string
	Status        PendingStatus
	ID            int64
	RuleID        int64
}

// Action returns the snapshotted action for application on approval.
func (p *PendingMatch) Action() Action {
	return Action{
		CategoryID: p.CategoryID,
		VendorID:   p.VendorID,
		StaffID:    p.StaffID,
		Notes:      p.Notes,
	}
}
