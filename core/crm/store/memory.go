// Package store implements the CRM repositories.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/koscakluka/ema-live/core/crm"
)

// Memory keeps records in process memory. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	leads   map[string]crm.Lead
	visits  map[string]crm.Visit
	history map[string][]crm.StatusUpdate
}

func NewMemory() *Memory {
	return &Memory{
		leads:   map[string]crm.Lead{},
		visits:  map[string]crm.Visit{},
		history: map[string][]crm.StatusUpdate{},
	}
}

func (m *Memory) Create(_ context.Context, lead crm.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[lead.ID]; ok {
		return fmt.Errorf("lead %s already exists", lead.ID)
	}
	m.leads[lead.ID] = lead
	return nil
}

func (m *Memory) GetByID(_ context.Context, id string) (crm.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lead, ok := m.leads[id]
	if !ok {
		return crm.Lead{}, crm.ErrLeadNotFound
	}
	return lead, nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status crm.Status, notes string, at time.Time) (crm.StatusUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, ok := m.leads[id]
	if !ok {
		return crm.StatusUpdate{}, crm.ErrLeadNotFound
	}

	update := crm.StatusUpdate{LeadID: id, OldStatus: lead.Status, NewStatus: status, Notes: notes, UpdatedAt: at}
	lead.Status = status
	if notes != "" {
		lead.Notes = notes
	}
	lead.UpdatedAt = at
	m.leads[id] = lead
	m.history[id] = append(m.history[id], update)
	return update, nil
}

func (m *Memory) List(context.Context) ([]crm.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	leads := make([]crm.Lead, 0, len(m.leads))
	for _, lead := range m.leads {
		leads = append(leads, lead)
	}
	slices.SortFunc(leads, func(a, b crm.Lead) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return leads, nil
}

func (m *Memory) History(_ context.Context, id string) ([]crm.StatusUpdate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.leads[id]; !ok {
		return nil, crm.ErrLeadNotFound
	}
	return slices.Clone(m.history[id]), nil
}

func (m *Memory) CreateVisit(_ context.Context, visit crm.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[visit.LeadID]; !ok {
		return crm.ErrLeadNotFound
	}
	m.visits[visit.ID] = visit
	return nil
}

func (m *Memory) ListVisits(context.Context) ([]crm.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	visits := make([]crm.Visit, 0, len(m.visits))
	for _, visit := range m.visits {
		visits = append(visits, visit)
	}
	slices.SortFunc(visits, func(a, b crm.Visit) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return visits, nil
}
