// Package domain defines the warehouse documents handled by the client, the
// operator profile, and the persistence models mapped with GORM for the
// local credential store and approval audit log.
package domain

import "time"

// CredentialEntry is one key/value pair of the persisted session
// (accessToken, userInfo, userId, userRole).
//
// Fields:
//   - Key: store key; primary key.
//   - Value: opaque string value (the cached user is JSON text).
//   - UpdatedAt: last write time, managed by GORM.
type CredentialEntry struct {
	Key       string    `gorm:"type:varchar(64);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for CredentialEntry.
func (CredentialEntry) TableName() string { return "credentials" }
