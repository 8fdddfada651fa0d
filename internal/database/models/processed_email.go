package models

import (
	"time"
)

// ProcessedEmail is the dedup ledger. One row is created the moment a
// message is claimed for processing, before any analysis runs, so a crash
// between claim and analysis can never lead to double processing. Rows are
// never deleted; the only mutation after creation is attaching the
// opportunity link.
type ProcessedEmail struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Account     string    `gorm:"size:255;not null;index;uniqueIndex:idx_processed_account_uid_folder" json:"account"`
	UID         string    `gorm:"size:64;not null;index;uniqueIndex:idx_processed_account_uid_folder" json:"uid"`
	Folder      string    `gorm:"size:255;not null;index;uniqueIndex:idx_processed_account_uid_folder" json:"folder"`
	ProcessedAt time.Time `json:"processed_at"`

	// A processed email might or might not result in an opportunity.
	OpportunityID *uint        `json:"opportunity_id,omitempty"`
	Opportunity   *Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
}

// TableName keeps the table name stable across drivers
func (ProcessedEmail) TableName() string {
	return "processed_emails"
}
