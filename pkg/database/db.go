package database

import (
	"fmt"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/config"
	"github.com/arnavshah/kitchen-planner-go/pkg/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// APIKey represents the api_keys table; each key belongs to one cook
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	CookID     string     `gorm:"not null;index" json:"cook_id"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table
type APIUsage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	KeyID        uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date         string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount int    `gorm:"default:0" json:"request_count"`
	Completions  int    `gorm:"default:0" json:"completions"`
	Issues       int    `gorm:"default:0" json:"issues"`
}

// Organizer represents the organizers table
type Organizer struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PlanSnapshot is the frozen schedule written each time the plan is confirmed
type PlanSnapshot struct {
	ID          uint                 `gorm:"primaryKey" json:"id"`
	ConfirmedBy string               `gorm:"not null" json:"confirmed_by"`
	ConfirmedAt time.Time            `gorm:"not null" json:"confirmed_at"`
	Assignments []SnapshotAssignment `gorm:"constraint:OnDelete:CASCADE" json:"assignments"`
}

// SnapshotAssignment is one locked assignment inside a snapshot
type SnapshotAssignment struct {
	ID             uint   `gorm:"primaryKey" json:"-"`
	PlanSnapshotID uint   `gorm:"index;not null" json:"-"`
	AssignmentID   string `gorm:"not null" json:"assignment_id"`
	TaskID         string `gorm:"not null" json:"task_id"`
	CookID         string `gorm:"not null;index" json:"cook_id"`
	ShiftID        string `gorm:"not null;index" json:"shift_id"`
	TimeEstimate   int    `json:"time_estimate"`
	Quantity       int    `json:"quantity"`
}

// Open connects to Postgres when DATABASE_URL is set, otherwise to a SQLite file, and migrates the schema
func Open(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&APIKey{}, &APIUsage{}, &Organizer{}, &PlanSnapshot{}, &SnapshotAssignment{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SaveSnapshot stores the confirmed assignments in one transaction
func SaveSnapshot(db *gorm.DB, confirmedBy string, confirmedAt time.Time, assignments []models.TaskAssignment) (*PlanSnapshot, error) {
	snap := &PlanSnapshot{
		ConfirmedBy: confirmedBy,
		ConfirmedAt: confirmedAt.UTC(),
		Assignments: make([]SnapshotAssignment, 0, len(assignments)),
	}
	for _, a := range assignments {
		snap.Assignments = append(snap.Assignments, SnapshotAssignment{
			AssignmentID: a.ID,
			TaskID:       a.TaskID,
			CookID:       a.CookID,
			ShiftID:      a.ShiftID,
			TimeEstimate: a.TimeEstimate,
			Quantity:     a.Quantity,
		})
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(snap).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save plan snapshot: %w", err)
	}
	return snap, nil
}

// LatestSnapshot returns the most recent confirmed plan
func LatestSnapshot(db *gorm.DB) (*PlanSnapshot, error) {
	var snap PlanSnapshot
	err := db.Preload("Assignments", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("shift_id asc, cook_id asc, task_id asc")
	}).Order("id desc").First(&snap).Error
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
