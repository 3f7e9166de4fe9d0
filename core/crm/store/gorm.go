package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/koscakluka/ema-live/core/crm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type leadRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null"`
	Phone     string `gorm:"size:32;not null"`
	City      string `gorm:"size:128;not null"`
	Source    string `gorm:"size:128"`
	Status    string `gorm:"size:16;not null;index"`
	Notes     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (leadRecord) TableName() string { return "crm_leads" }

type visitRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	LeadID    string `gorm:"size:36;not null;index"`
	VisitTime time.Time
	Notes     string `gorm:"type:text"`
	Status    string `gorm:"size:16;not null"`
	CreatedAt time.Time
}

func (visitRecord) TableName() string { return "crm_visits" }

type statusUpdateRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	LeadID    string `gorm:"size:36;not null;index"`
	OldStatus string `gorm:"size:16"`
	NewStatus string `gorm:"size:16;not null"`
	Notes     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (statusUpdateRecord) TableName() string { return "crm_status_updates" }

// Gorm persists records through gorm. Each status update and its history
// entry are written in one transaction.
type Gorm struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// migrates the CRM tables. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*Gorm, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	// Every connection to ":memory:" opens its own empty database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)
	return NewGorm(db)
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&leadRecord{}, &visitRecord{}, &statusUpdateRecord{}); err != nil {
		return nil, fmt.Errorf("store: auto-migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return sqlDB.Close()
}

func (g *Gorm) Create(ctx context.Context, lead crm.Lead) error {
	var record leadRecord
	if err := copier.Copy(&record, &lead); err != nil {
		return fmt.Errorf("store: create lead: %w", err)
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("store: create lead: %w", err)
	}
	return nil
}

func (g *Gorm) GetByID(ctx context.Context, id string) (crm.Lead, error) {
	var record leadRecord
	if err := g.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return crm.Lead{}, crm.ErrLeadNotFound
		}
		return crm.Lead{}, fmt.Errorf("store: get lead %s: %w", id, err)
	}
	var lead crm.Lead
	if err := copier.Copy(&lead, &record); err != nil {
		return crm.Lead{}, fmt.Errorf("store: get lead %s: %w", id, err)
	}
	return lead, nil
}

func (g *Gorm) UpdateStatus(ctx context.Context, id string, status crm.Status, notes string, at time.Time) (crm.StatusUpdate, error) {
	var update crm.StatusUpdate
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record leadRecord
		if err := tx.First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return crm.ErrLeadNotFound
			}
			return err
		}
		oldStatus := record.Status

		changes := map[string]any{"status": string(status), "updated_at": at}
		if notes != "" {
			changes["notes"] = notes
		}
		if err := tx.Model(&record).Updates(changes).Error; err != nil {
			return err
		}

		history := statusUpdateRecord{
			LeadID:    id,
			OldStatus: oldStatus,
			NewStatus: string(status),
			Notes:     notes,
			UpdatedAt: at,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
		return copier.Copy(&update, &history)
	})
	if err != nil {
		if errors.Is(err, crm.ErrLeadNotFound) {
			return crm.StatusUpdate{}, err
		}
		return crm.StatusUpdate{}, fmt.Errorf("store: update lead %s: %w", id, err)
	}
	return update, nil
}

func (g *Gorm) List(ctx context.Context) ([]crm.Lead, error) {
	var records []leadRecord
	if err := g.db.WithContext(ctx).Order("created_at").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: list leads: %w", err)
	}
	leads := make([]crm.Lead, 0, len(records))
	if err := copier.Copy(&leads, &records); err != nil {
		return nil, fmt.Errorf("store: list leads: %w", err)
	}
	return leads, nil
}

func (g *Gorm) History(ctx context.Context, id string) ([]crm.StatusUpdate, error) {
	if _, err := g.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var records []statusUpdateRecord
	if err := g.db.WithContext(ctx).Where("lead_id = ?", id).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: list history of %s: %w", id, err)
	}
	updates := make([]crm.StatusUpdate, 0, len(records))
	if err := copier.Copy(&updates, &records); err != nil {
		return nil, fmt.Errorf("store: list history of %s: %w", id, err)
	}
	return updates, nil
}

func (g *Gorm) CreateVisit(ctx context.Context, visit crm.Visit) error {
	var record visitRecord
	if err := copier.Copy(&record, &visit); err != nil {
		return fmt.Errorf("store: create visit: %w", err)
	}
	if err := g.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("store: create visit: %w", err)
	}
	return nil
}

func (g *Gorm) ListVisits(ctx context.Context) ([]crm.Visit, error) {
	var records []visitRecord
	if err := g.db.WithContext(ctx).Order("created_at").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("store: list visits: %w", err)
	}
	visits := make([]crm.Visit, 0, len(records))
	if err := copier.Copy(&visits, &records); err != nil {
		return nil, fmt.Errorf("store: list visits: %w", err)
	}
	return visits, nil
}
