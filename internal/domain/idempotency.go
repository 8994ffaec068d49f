package domain

import "time"

// Idempotency records the first successful upstream response of a write
// request, keyed by (subject, scope, key). Subject is a digest of the session
// token, never the token itself; scope names the route and resource.
type Idempotency struct {
	ID          string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Subject     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_subject_scope_key,priority:1"`
	Scope       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_subject_scope_key,priority:2"`
	Key         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_subject_scope_key,priority:3"`
	Status      int       `gorm:"type:INTEGER NOT NULL"`
	ContentType string    `gorm:"type:TEXT NOT NULL;default:'application/json'"`
	Body        []byte    `gorm:"type:BLOB"`
	CreatedAt   time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
