package models

import (
	"time"
)

// CalculationRecord is one persisted history entry. Records are immutable
// once created; the store only ever deletes them.
type CalculationRecord struct {
	ID                      string         `gorm:"primaryKey" json:"id"`
	OwnerToken              string         `gorm:"index;not null" json:"-"`
	StatedProtein           float64        `gorm:"not null" json:"statedProtein"`
	DVPercentage            *float64       `json:"dvPercentage,omitempty"`
	DigestibleProtein       float64        `gorm:"not null" json:"digestibleProtein"`
	DigestibilityPercentage float64        `gorm:"not null" json:"digestibilityPercentage"`
	CalculationMethod       string         `gorm:"not null" json:"calculationMethod"`
	Timestamp               time.Time      `gorm:"index;not null" json:"timestamp"`
	Sources                 []RecordSource `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE" json:"sources"`
}

// RecordSource is a snapshot of one ingredient of a calculation. Snapshots
// are copied from the catalog at calculation time so history survives
// catalog revisions.
type RecordSource struct {
	SerialID       uint     `gorm:"primaryKey;autoIncrement" json:"-"`
	RecordID       string   `gorm:"index;not null" json:"-"`
	SourceID       string   `gorm:"not null" json:"id"`
	SourceName     string   `gorm:"not null" json:"name"`
	SourceCategory Category `gorm:"not null" json:"category"`
	Percentage     *float64 `json:"percentage,omitempty"`
}
