package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gorm.io/gorm"

	"github.com/bambinounos/eia/internal/database/models"
)

func createLedgerRow(t *testing.T, db *gorm.DB, uid string) uint {
	ledger := NewLedgerService(db)
	record, err := ledger.RecordProcessed("scan@example.com", uid, "INBOX")
	if err != nil {
		t.Fatalf("Failed to create ledger row: %v", err)
	}
	return record.ID
}

// TestProperty_OpportunityCreation tests that a created opportunity lands
// with its products and the ledger back-link in one piece
func TestProperty_OpportunityCreation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("create_persists_products_and_backlink", prop.ForAll(
		func(uid uint32, productCount int) bool {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			sourceID := createLedgerRow(t, db, fmt.Sprintf("%d", uid))
			service := NewOpportunityService(db)

			var products []string
			for i := 0; i < productCount; i++ {
				products = append(products, fmt.Sprintf("producto-%d", i))
			}

			opportunity, err := service.CreateOpportunity(CreateOpportunityInput{
				SourceEmailID:  sourceID,
				Subject:        "Solicitud de cotización",
				Sender:         "compras@example.com",
				Classification: "Cotización directa",
				IsRelevant:     true,
				Products:       products,
			})
			if err != nil {
				return false
			}

			if opportunity.Status != string(models.StatusPendingReview) {
				return false
			}

			stored, err := service.GetByID(opportunity.ID)
			if err != nil || len(stored.Products) != productCount {
				return false
			}

			ledger := NewLedgerService(db)
			record, err := ledger.GetRecord(sourceID)
			if err != nil || record.OpportunityID == nil {
				return false
			}
			return *record.OpportunityID == opportunity.ID
		},
		gen.UInt32(),
		gen.IntRange(0, 5),
	))

	properties.TestingRun(t)
}

// TestProperty_OpportunityStatusTransitions tests the review workflow:
// valid statuses land, anything else is rejected without touching the row
func TestProperty_OpportunityStatusTransitions(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("valid_status_is_stored", prop.ForAll(
		func(uid uint32, status string) bool {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			sourceID := createLedgerRow(t, db, fmt.Sprintf("%d", uid))
			service := NewOpportunityService(db)

			opportunity, err := service.CreateOpportunity(CreateOpportunityInput{
				SourceEmailID:  sourceID,
				Subject:        "Licitación",
				Sender:         "compras@example.com",
				Classification: "Licitación/requerimiento público",
				IsRelevant:     true,
			})
			if err != nil {
				return false
			}

			if err := service.UpdateStatus(opportunity.ID, status); err != nil {
				return false
			}

			stored, err := service.GetByID(opportunity.ID)
			return err == nil && stored.Status == status
		},
		gen.UInt32(),
		gen.OneConstOf("pending_review", "approved", "discarded"),
	))

	properties.Property("invalid_status_leaves_row_unchanged", prop.ForAll(
		func(uid uint32, badStatus string) bool {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			sourceID := createLedgerRow(t, db, fmt.Sprintf("%d", uid))
			service := NewOpportunityService(db)

			opportunity, err := service.CreateOpportunity(CreateOpportunityInput{
				SourceEmailID:  sourceID,
				Subject:        "Licitación",
				Sender:         "compras@example.com",
				Classification: "Licitación/requerimiento público",
				IsRelevant:     true,
			})
			if err != nil {
				return false
			}

			err = service.UpdateStatus(opportunity.ID, badStatus)
			if !errors.Is(err, ErrInvalidStatus) {
				return false
			}

			stored, err := service.GetByID(opportunity.ID)
			return err == nil && stored.Status == string(models.StatusPendingReview)
		},
		gen.UInt32(),
		gen.OneConstOf("archived", "APPROVED", "done", ""),
	))

	properties.Property("missing_id_returns_not_found", prop.ForAll(
		func(id uint) bool {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			service := NewOpportunityService(db)
			err := service.UpdateStatus(id, string(models.StatusApproved))
			return errors.Is(err, ErrOpportunityNotFound)
		},
		gen.UIntRange(1, 100000),
	))

	properties.TestingRun(t)
}

// TestProperty_OpportunityListOrdering tests that pages always come back
// newest first regardless of insertion order
func TestProperty_OpportunityListOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	properties.Property("list_is_newest_first", prop.ForAll(
		func(count int) bool {
			db, cleanup := setupTestDB(t)
			defer cleanup()

			service := NewOpportunityService(db)
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

			for i := 0; i < count; i++ {
				sourceID := createLedgerRow(t, db, fmt.Sprintf("%d", i))
				opportunity, err := service.CreateOpportunity(CreateOpportunityInput{
					SourceEmailID:  sourceID,
					Subject:        fmt.Sprintf("Oportunidad %d", i),
					Sender:         "compras@example.com",
					Classification: "Cotización directa",
					IsRelevant:     true,
				})
				if err != nil {
					return false
				}
				// Spread detection times so ordering is observable
				detected := base.Add(time.Duration(i) * time.Hour)
				if err := db.Model(opportunity).Update("detected_at", detected).Error; err != nil {
					return false
				}
			}

			result, err := service.List(OpportunityListOptions{})
			if err != nil || result.Total != int64(count) {
				return false
			}
			for i := 1; i < len(result.Opportunities); i++ {
				if result.Opportunities[i].DetectedAt.After(result.Opportunities[i-1].DetectedAt) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

// TestOpportunityListPaginationAndFilter walks through a concrete review
// scenario: two approved rows among five, page size one.
func TestOpportunityListPaginationAndFilter(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	service := NewOpportunityService(db)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	var approvedNewest uint
	for i := 0; i < 5; i++ {
		sourceID := createLedgerRow(t, db, fmt.Sprintf("%d", i))
		opportunity, err := service.CreateOpportunity(CreateOpportunityInput{
			SourceEmailID:  sourceID,
			Subject:        fmt.Sprintf("Oportunidad %d", i),
			Sender:         "compras@example.com",
			Classification: "Cotización directa",
			IsRelevant:     true,
		})
		if err != nil {
			t.Fatalf("CreateOpportunity failed: %v", err)
		}
		detected := base.Add(time.Duration(i) * time.Hour)
		if err := db.Model(opportunity).Update("detected_at", detected).Error; err != nil {
			t.Fatalf("Failed to set detected_at: %v", err)
		}
		if i == 1 || i == 3 {
			if err := service.UpdateStatus(opportunity.ID, "approved"); err != nil {
				t.Fatalf("UpdateStatus failed: %v", err)
			}
			approvedNewest = opportunity.ID
		}
	}

	result, err := service.List(OpportunityListOptions{Limit: 1, Status: "approved"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if result.Total != 2 {
		t.Errorf("Expected total 2, got %d", result.Total)
	}
	if len(result.Opportunities) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(result.Opportunities))
	}
	if result.Opportunities[0].ID != approvedNewest {
		t.Errorf("Expected newest approved opportunity %d first, got %d", approvedNewest, result.Opportunities[0].ID)
	}

	// Second page holds the older approved row
	result, err = service.List(OpportunityListOptions{Skip: 1, Limit: 1, Status: "approved"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(result.Opportunities) != 1 || result.Opportunities[0].ID == approvedNewest {
		t.Errorf("Expected the older approved opportunity on page 2")
	}

	// Unknown status is rejected before the query runs
	if _, err := service.List(OpportunityListOptions{Status: "archived"}); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("Expected ErrInvalidStatus, got %v", err)
	}
}
