package models

import (
	"time"
)

// Opportunity stores the details of a detected business opportunity
type Opportunity struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Link back to the ledger row this opportunity came from
	SourceEmailID uint `gorm:"uniqueIndex;not null" json:"source_email_id"`

	// Raw email info
	Subject      string `gorm:"size:500;not null" json:"subject"`
	Sender       string `gorm:"size:255;not null" json:"sender"`
	OriginalBody string `gorm:"type:text" json:"original_body,omitempty"`

	// Analysis results
	Classification           string  `gorm:"size:100;not null;index" json:"classification"`
	ClassificationConfidence float64 `json:"classification_confidence"`
	Summary                  string  `gorm:"type:text" json:"summary,omitempty"`
	IsRelevant               bool    `gorm:"default:false;index" json:"is_relevant"`
	RelevanceConfidence      float64 `json:"relevance_confidence"`

	// Extracted entities, each individually optional since extraction may fail
	EntityName         string     `gorm:"size:255" json:"entity_name,omitempty"`
	EntityContactEmail string     `gorm:"size:255" json:"entity_contact_email,omitempty"`
	EntityDeadline     *time.Time `json:"entity_deadline,omitempty"`
	EntityAmount       *float64   `json:"entity_amount,omitempty"`

	// Review workflow
	Status     string    `gorm:"size:20;default:'pending_review';not null;index" json:"status"`
	DetectedAt time.Time `gorm:"index" json:"detected_at"`

	// Relations
	Products []OpportunityProduct `gorm:"foreignKey:OpportunityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"products"`
}

// TableName keeps the table name stable across drivers
func (Opportunity) TableName() string {
	return "opportunities"
}

// OpportunityProduct associates an opportunity with one matched catalog
// product. Owned exclusively by its opportunity and removed with it.
type OpportunityProduct struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	OpportunityID uint   `gorm:"not null;index" json:"opportunity_id"`
	ProductName   string `gorm:"size:255;not null" json:"product_name"`
}

// TableName keeps the table name stable across drivers
func (OpportunityProduct) TableName() string {
	return "opportunity_products"
}

// OpportunityStatus represents the review state of an opportunity
type OpportunityStatus string

const (
	StatusPendingReview OpportunityStatus = "pending_review"
	StatusApproved      OpportunityStatus = "approved"
	StatusDiscarded     OpportunityStatus = "discarded"
)

// IsValid checks if the status value is one of the allowed states
func (s OpportunityStatus) IsValid() bool {
	switch s {
	case StatusPendingReview, StatusApproved, StatusDiscarded:
		return true
	}
	return false
}

// AllowedStatuses lists the valid status values, for error messages
func AllowedStatuses() []string {
	return []string{
		string(StatusPendingReview),
		string(StatusApproved),
		string(StatusDiscarded),
	}
}
