package database

import (
	"time"

	"github.com/google/uuid"
)

// PVRun is one stored lifetime simulation
type PVRun struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:uuid"`
	Scenario  string    `gorm:"column:scenario;not null"`
	Mode      string    `gorm:"column:mode;not null"`
	StartYear int       `gorm:"column:start_year;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

// TableName specifies the table name for PVRun
func (PVRun) TableName() string {
	return "pv_runs"
}

// PVOutput is one sample of a run's lifetime output
type PVOutput struct {
	Time  time.Time `gorm:"column:time;not null"`
	RunID uuid.UUID `gorm:"column:run_id;type:uuid;not null"`
	Value float64   `gorm:"column:value;not null"`
}

// TableName specifies the table name for PVOutput
func (PVOutput) TableName() string {
	return "pv_output"
}

// PVYearly is a run's summary for one calendar year
type PVYearly struct {
	RunID   uuid.UUID `gorm:"primaryKey;column:run_id;type:uuid"`
	Year    int       `gorm:"primaryKey;column:year"`
	Samples int       `gorm:"column:samples;not null"`
	Total   float64   `gorm:"column:total;not null"`
	Mean    float64   `gorm:"column:mean;not null"`
	Peak    float64   `gorm:"column:peak;not null"`
}

// TableName specifies the table name for PVYearly
func (PVYearly) TableName() string {
	return "pv_yearly"
}
