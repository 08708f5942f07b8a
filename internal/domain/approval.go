package domain

import "time"

// Approval outcomes recorded in the audit log.
const (
	OutcomeApproved = "approved"
	OutcomeFailed   = "failed"
)

// ApprovalRecord is one settled approval attempt. When the console request
// carried an Idempotency-Key, the (user_id, key) pair is unique so a retry can
// replay the recorded result instead of calling the backend again.
type ApprovalRecord struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"` // ULID
	UserID         string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_approval_user_key,priority:1;index:idx_approval_user"`
	IdempotencyKey *string   `gorm:"type:TEXT;uniqueIndex:ux_approval_user_key,priority:2"`
	DocumentType   string    `gorm:"type:TEXT NOT NULL;index:idx_approval_doc,priority:1"`
	DocumentID     int64     `gorm:"type:INTEGER NOT NULL;index:idx_approval_doc,priority:2"`
	Outcome        string    `gorm:"type:TEXT NOT NULL;check:outcome IN ('approved','failed')"`
	ErrorKind      string    `gorm:"type:TEXT NOT NULL;default:''"`
	ErrorMessage   string    `gorm:"type:TEXT NOT NULL;default:''"`
	HTTPStatus     int       `gorm:"type:INTEGER NOT NULL;default:0"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime;index"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (ApprovalRecord) TableName() string { return "approval_log" }

// DocumentKey returns the approved document's identity.
func (r ApprovalRecord) DocumentKey() DocumentKey {
	return DocumentKey{Type: DocumentType(r.DocumentType), ID: r.DocumentID}
}

// Succeeded reports whether the backend accepted the approval.
func (r ApprovalRecord) Succeeded() bool { return r.Outcome == OutcomeApproved }
