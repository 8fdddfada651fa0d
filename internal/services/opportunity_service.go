package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/bambinounos/eia/internal/database/models"
	"gorm.io/gorm"
)

var (
	// ErrOpportunityNotFound indicates the opportunity does not exist
	ErrOpportunityNotFound = errors.New("opportunity not found")
	// ErrInvalidStatus indicates a status outside the allowed set
	ErrInvalidStatus = errors.New("invalid opportunity status")
	// ErrOpportunityStore indicates a persistence failure on the create path
	ErrOpportunityStore = errors.New("opportunity store failure")
)

// OpportunityService handles the durable record of detected opportunities
type OpportunityService struct {
	db *gorm.DB
}

// NewOpportunityService creates a new OpportunityService instance
func NewOpportunityService(db *gorm.DB) *OpportunityService {
	return &OpportunityService{db: db}
}

// CreateOpportunityInput carries everything needed to persist one detected
// opportunity together with its matched products.
type CreateOpportunityInput struct {
	SourceEmailID            uint
	Subject                  string
	Sender                   string
	OriginalBody             string
	Classification           string
	ClassificationConfidence float64
	Summary                  string
	IsRelevant               bool
	RelevanceConfidence      float64
	EntityName               string
	EntityContactEmail       string
	EntityDeadline           *time.Time
	EntityAmount             *float64
	Products                 []string
}

// CreateOpportunity persists the opportunity, its product list, and the
// back-link on the source ledger row in a single transaction, so either
// everything lands or nothing does.
func (s *OpportunityService) CreateOpportunity(input CreateOpportunityInput) (*models.Opportunity, error) {
	opportunity := &models.Opportunity{
		SourceEmailID:            input.SourceEmailID,
		Subject:                  input.Subject,
		Sender:                   input.Sender,
		OriginalBody:             input.OriginalBody,
		Classification:           input.Classification,
		ClassificationConfidence: input.ClassificationConfidence,
		Summary:                  input.Summary,
		IsRelevant:               input.IsRelevant,
		RelevanceConfidence:      input.RelevanceConfidence,
		EntityName:               input.EntityName,
		EntityContactEmail:       input.EntityContactEmail,
		EntityDeadline:           input.EntityDeadline,
		EntityAmount:             input.EntityAmount,
		Status:                   string(models.StatusPendingReview),
		DetectedAt:               time.Now().UTC(),
	}
	for _, name := range input.Products {
		opportunity.Products = append(opportunity.Products, models.OpportunityProduct{ProductName: name})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(opportunity).Error; err != nil {
			return err
		}
		return tx.Model(&models.ProcessedEmail{}).
			Where("id = ?", input.SourceEmailID).
			Update("opportunity_id", opportunity.ID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpportunityStore, err)
	}
	return opportunity, nil
}

// OpportunityListOptions controls pagination and filtering for List
type OpportunityListOptions struct {
	Skip   int
	Limit  int
	Status string
}

// OpportunityListResult is one page of opportunities plus the total count
type OpportunityListResult struct {
	Total         int64
	Opportunities []models.Opportunity
}

// List returns opportunities ordered by detection time descending. Skip is
// clamped to zero and limit to [1,200].
func (s *OpportunityService) List(opts OpportunityListOptions) (*OpportunityListResult, error) {
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	if opts.Limit < 1 {
		opts.Limit = 100
	}
	if opts.Limit > 200 {
		opts.Limit = 200
	}

	query := s.db.Model(&models.Opportunity{})
	if opts.Status != "" {
		if !models.OpportunityStatus(opts.Status).IsValid() {
			return nil, ErrInvalidStatus
		}
		query = query.Where("status = ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var opportunities []models.Opportunity
	err := query.Preload("Products").
		Order("detected_at DESC, id DESC").
		Offset(opts.Skip).
		Limit(opts.Limit).
		Find(&opportunities).Error
	if err != nil {
		return nil, err
	}

	return &OpportunityListResult{Total: total, Opportunities: opportunities}, nil
}

// GetByID returns a single opportunity with its products
func (s *OpportunityService) GetByID(id uint) (*models.Opportunity, error) {
	var opportunity models.Opportunity
	err := s.db.Preload("Products").First(&opportunity, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, err
	}
	return &opportunity, nil
}

// UpdateStatus moves an opportunity to a new review state. The status is
// validated before the row is touched, so an invalid value leaves the
// stored status unchanged.
func (s *OpportunityService) UpdateStatus(id uint, newStatus string) error {
	if !models.OpportunityStatus(newStatus).IsValid() {
		return ErrInvalidStatus
	}

	result := s.db.Model(&models.Opportunity{}).
		Where("id = ?", id).
		Update("status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOpportunityNotFound
	}
	return nil
}

// Delete removes an opportunity; its products go with it via the cascade
func (s *OpportunityService) Delete(id uint) error {
	// Sqlite does not always enforce foreign-key cascades, so products are
	// removed explicitly inside the same transaction.
	return s.db.Transaction(func(tx *gorm.DB) error {
		var opportunity models.Opportunity
		if err := tx.First(&opportunity, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOpportunityNotFound
			}
			return err
		}
		if err := tx.Where("opportunity_id = ?", id).Delete(&models.OpportunityProduct{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.ProcessedEmail{}).
			Where("opportunity_id = ?", id).
			Update("opportunity_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&opportunity).Error
	})
}
