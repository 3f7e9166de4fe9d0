package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/koscakluka/ema-live/core/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestGorm(t *testing.T) *Gorm {
	t.Helper()
	g, err := OpenSQLite(":memory:")
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { g.Close() })
	return g
}

// forEachStore runs fn against every repository implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, repo crm.Repository)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("gorm", func(t *testing.T) { fn(t, openTestGorm(t)) })
}

var base = time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)

func testLead(id string, offset time.Duration) crm.Lead {
	return crm.Lead{
		ID:        id,
		Name:      "Lead " + id,
		Phone:     "555-" + id,
		City:      "Zagreb",
		Status:    crm.StatusNew,
		CreatedAt: base.Add(offset),
		UpdatedAt: base.Add(offset),
	}
}

func TestLeadRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo crm.Repository) {
		ctx := context.Background()
		lead := testLead("a", 0)
		lead.Source = "referral"
		require.NoError(t, repo.Create(ctx, lead))

		got, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, lead.Name, got.Name)
		assert.Equal(t, lead.Source, got.Source)
		assert.Equal(t, crm.StatusNew, got.Status)
		assert.True(t, lead.CreatedAt.Equal(got.CreatedAt))

		_, err = repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, crm.ErrLeadNotFound)
	})
}

func TestListOrderedByCreation(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo crm.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, testLead("second", time.Minute)))
		require.NoError(t, repo.Create(ctx, testLead("first", 0)))
		require.NoError(t, repo.Create(ctx, testLead("third", 2*time.Minute)))

		leads, err := repo.List(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(leads))
		for _, lead := range leads {
			ids = append(ids, lead.ID)
		}
		assert.Equal(t, []string{"first", "second", "third"}, ids)
	})
}

func TestUpdateStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo crm.Repository) {
		ctx := context.Background()
		lead := testLead("a", 0)
		lead.Notes = "initial"
		require.NoError(t, repo.Create(ctx, lead))

		at := base.Add(time.Hour)
		update, err := repo.UpdateStatus(ctx, "a", crm.StatusFollowUp, "", at)
		require.NoError(t, err)
		assert.Equal(t, crm.StatusNew, update.OldStatus)
		assert.Equal(t, crm.StatusFollowUp, update.NewStatus)

		got, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, crm.StatusFollowUp, got.Status)
		assert.Equal(t, "initial", got.Notes)
		assert.True(t, at.Equal(got.UpdatedAt))

		_, err = repo.UpdateStatus(ctx, "a", crm.StatusLost, "went elsewhere", at)
		require.NoError(t, err)
		got, err = repo.GetByID(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "went elsewhere", got.Notes)

		history, err := repo.History(ctx, "a")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, crm.StatusFollowUp, history[0].NewStatus)
		assert.Equal(t, crm.StatusFollowUp, history[1].OldStatus)
		assert.Equal(t, crm.StatusLost, history[1].NewStatus)
	})
}

func TestUpdateStatus_UnknownLead(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo crm.Repository) {
		_, err := repo.UpdateStatus(context.Background(), "missing", crm.StatusWon, "", base)
		assert.ErrorIs(t, err, crm.ErrLeadNotFound)

		_, err = repo.History(context.Background(), "missing")
		assert.ErrorIs(t, err, crm.ErrLeadNotFound)
	})
}

func TestUpdateStatus_ConcurrentLastWriteWins(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo crm.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, testLead("a", 0)))

		statuses := []crm.Status{crm.StatusInProgress, crm.StatusFollowUp, crm.StatusWon, crm.StatusLost}
		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.UpdateStatus(ctx, "a", statuses[i%len(statuses)], fmt.Sprintf("update %d", i), base)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		history, err := repo.History(ctx, "a")
		require.NoError(t, err)
		require.Len(t, history, 20)

		got, err := repo.GetByID(ctx, "a")
		require.NoError(t, err)
		last := history[len(history)-1]
		assert.Equal(t, last.NewStatus, got.Status)
		assert.Equal(t, last.Notes, got.Notes)
		for i := 1; i < len(history); i++ {
			assert.Equal(t, history[i-1].NewStatus, history[i].OldStatus, "history entry %d", i)
		}
	})
}

func TestVisits(t *testing.T) {
	forEachStore(t, func(t *testing.T, repo crm.Repository) {
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, testLead("a", 0)))

		visit := crm.Visit{
			ID:        "v1",
			LeadID:    "a",
			VisitTime: base.Add(48 * time.Hour),
			Notes:     "second floor",
			Status:    crm.VisitStatusScheduled,
			CreatedAt: base,
		}
		require.NoError(t, repo.CreateVisit(ctx, visit))

		visits, err := repo.ListVisits(ctx)
		require.NoError(t, err)
		require.Len(t, visits, 1)
		assert.Equal(t, "v1", visits[0].ID)
		assert.Equal(t, "a", visits[0].LeadID)
		assert.True(t, visit.VisitTime.Equal(visits[0].VisitTime))
		assert.Equal(t, crm.VisitStatusScheduled, visits[0].Status)
	})
}

func TestGormStatusHistoryRowKeepsPreviousStatus(t *testing.T) {
	ctx := context.Background()
	g := openTestGorm(t)
	require.NoError(t, g.Create(ctx, testLead("a", 0)))

	update, err := g.UpdateStatus(ctx, "a", crm.StatusWon, "", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, crm.StatusNew, update.OldStatus)

	var rows []statusUpdateRecord
	require.NoError(t, g.db.Where("lead_id = ?", "a").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "NEW", rows[0].OldStatus)
	assert.Equal(t, "WON", rows[0].NewStatus)

	var lead leadRecord
	require.NoError(t, g.db.First(&lead, "id = ?", "a").Error)
	assert.Equal(t, "WON", lead.Status)
}
