package models

import (
	"time"

	"github.com/google/uuid"
)

// CommitRecord is the number of commits a user made on one calendar day
type CommitRecord struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	CommitDate  time.Time `json:"commit_date" db:"commit_date"`
	CommitCount int       `json:"commit_count" db:"commit_count"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the CommitRecord model
func (CommitRecord) TableName() string {
	return "commit_records"
}

// NewCommitRecord creates a record for the day containing date
func NewCommitRecord(userID uuid.UUID, date time.Time, count int) *CommitRecord {
	return &CommitRecord{
		UserID:      userID,
		CommitDate:  TruncateToDay(date),
		CommitCount: count,
		UpdatedAt:   time.Now().UTC(),
	}
}

// TruncateToDay returns midnight of the UTC calendar day containing t
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
