package crm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const scopeName = "github.com/koscakluka/ema-live/core/crm"

type Service struct {
	repo   Repository
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: otelslog.NewLogger(scopeName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type NewLead struct {
	Name   string
	Phone  string
	City   string
	Source string
}

func (s *Service) CreateLead(ctx context.Context, input NewLead) (Lead, error) {
	for _, field := range []struct{ name, value string }{
		{"name", input.Name}, {"phone", input.Phone}, {"city", input.City},
	} {
		if strings.TrimSpace(field.value) == "" {
			return Lead{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, field.name)
		}
	}

	now := s.now()
	lead := Lead{
		ID:        s.newID(),
		Name:      input.Name,
		Phone:     input.Phone,
		City:      input.City,
		Source:    input.Source,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return Lead{}, fmt.Errorf("failed to store lead: %w", err)
	}

	s.logger.Info("lead created",
		"lead_id", lead.ID, "name", lead.Name, "phone", lead.Phone, "city", lead.City,
		"source", valueOr(lead.Source, "N/A"), "status", lead.Status)
	return lead, nil
}

type NewVisit struct {
	LeadID    string
	VisitTime time.Time
	Notes     string
}

func (s *Service) ScheduleVisit(ctx context.Context, input NewVisit) (Visit, error) {
	lead, err := s.repo.GetByID(ctx, input.LeadID)
	if err != nil {
		s.logger.Warn("visit for unknown lead", "lead_id", input.LeadID, "error", err)
		return Visit{}, err
	}

	visit := Visit{
		ID:        s.newID(),
		LeadID:    lead.ID,
		VisitTime: input.VisitTime,
		Notes:     input.Notes,
		Status:    VisitStatusScheduled,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateVisit(ctx, visit); err != nil {
		return Visit{}, fmt.Errorf("failed to store visit: %w", err)
	}

	s.logger.Info("visit scheduled",
		"visit_id", visit.ID, "lead_id", lead.ID, "lead_name", lead.Name,
		"visit_time", visit.VisitTime.Format(time.RFC3339), "notes", valueOr(visit.Notes, "N/A"))
	return visit, nil
}

func (s *Service) UpdateLeadStatus(ctx context.Context, leadID string, status Status, notes string) (StatusUpdate, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return StatusUpdate{}, err
	}

	update, err := s.repo.UpdateStatus(ctx, leadID, status, notes, s.now())
	if err != nil {
		s.logger.Warn("status update failed", "lead_id", leadID, "error", err)
		return StatusUpdate{}, err
	}

	s.logger.Info("lead status updated",
		"lead_id", leadID, "old_status", update.OldStatus, "new_status", update.NewStatus,
		"notes", valueOr(update.Notes, "N/A"))
	return update, nil
}

func (s *Service) Lead(ctx context.Context, id string) (Lead, error) { return s.repo.GetByID(ctx, id) }
func (s *Service) Leads(ctx context.Context) ([]Lead, error)         { return s.repo.List(ctx) }
func (s *Service) Visits(ctx context.Context) ([]Visit, error)       { return s.repo.ListVisits(ctx) }

func (s *Service) History(ctx context.Context, leadID string) ([]StatusUpdate, error) {
	return s.repo.History(ctx, leadID)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
