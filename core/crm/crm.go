// Package crm holds the lead and visit records the assistant manages and the
// rules for changing them.
package crm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrLeadNotFound  = errors.New("lead not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidInput  = errors.New("invalid input")
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFollowUp   Status = "FOLLOW_UP"
	StatusWon        Status = "WON"
	StatusLost       Status = "LOST"
)

// Statuses lists every lead status in pipeline order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusFollowUp, StatusWon, StatusLost}

// ParseStatus accepts exactly the upper-case status names.
func ParseStatus(value string) (Status, error) {
	for _, status := range Statuses {
		if string(status) == value {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of NEW, IN_PROGRESS, FOLLOW_UP, WON, LOST", ErrInvalidStatus, value)
}

// VisitStatusScheduled is the status of every newly created visit.
const VisitStatusScheduled = "SCHEDULED"

type Lead struct {
	ID        string    `json:"lead_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	City      string    `json:"city"`
	Source    string    `json:"source,omitempty"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Visit struct {
	ID        string    `json:"visit_id"`
	LeadID    string    `json:"lead_id"`
	VisitTime time.Time `json:"visit_time"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusUpdate is one entry of a lead's status history.
type StatusUpdate struct {
	LeadID    string    `json:"lead_id"`
	OldStatus Status    `json:"old_status"`
	NewStatus Status    `json:"new_status"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeadRepository stores leads. UpdateStatus replaces the status; concurrent
// updates resolve to whichever was applied last.
type LeadRepository interface {
	Create(ctx context.Context, lead Lead) error
	GetByID(ctx context.Context, id string) (Lead, error)
	// UpdateStatus sets the status, and the notes when not empty, and
	// returns the recorded history entry. Unknown ids return ErrLeadNotFound.
	UpdateStatus(ctx context.Context, id string, status Status, notes string, at time.Time) (StatusUpdate, error)
	List(ctx context.Context) ([]Lead, error)
	History(ctx context.Context, id string) ([]StatusUpdate, error)
}

type VisitRepository interface {
	CreateVisit(ctx context.Context, visit Visit) error
	ListVisits(ctx context.Context) ([]Visit, error)
}

type Repository interface {
	LeadRepository
	VisitRepository
}
