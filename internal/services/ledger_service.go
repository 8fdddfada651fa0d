package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bambinounos/eia/internal/database/models"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateMessage indicates the (account, uid, folder) triple was
	// already claimed, either in a previous cycle or by a concurrent run
	ErrDuplicateMessage = errors.New("message already processed")
	// ErrRecordNotFound indicates the ledger row does not exist
	ErrRecordNotFound = errors.New("ledger record not found")
)

// LedgerService is the durable at-most-once-processing record. The unique
// constraint on (account, uid, folder) is the sole cross-run arbiter of
// which run gets to process a message; IsProcessed is only a fast path.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// IsProcessed reports whether the triple has already been claimed. Callers
// must not rely on this for correctness; RecordProcessed is the atomic claim.
func (s *LedgerService) IsProcessed(account, uid, folder string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ProcessedEmail{}).
		Where("account = ? AND uid = ? AND folder = ?", account, uid, folder).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordProcessed atomically claims the triple by inserting the ledger row.
// The write is committed before any analysis runs, so a crash after this
// point at worst loses one opportunity but never double-processes. Returns
// ErrDuplicateMessage when another run already holds the claim.
func (s *LedgerService) RecordProcessed(account, uid, folder string) (*models.ProcessedEmail, error) {
	record := &models.ProcessedEmail{
		Account:     account,
		UID:         uid,
		Folder:      folder,
		ProcessedAt: time.Now().UTC(),
	}
	if err := s.db.Create(record).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicateMessage
		}
		return nil, fmt.Errorf("ledger insert failed: %w", err)
	}
	return record, nil
}

// AttachOpportunity links an opportunity to its source ledger row. This is
// the only mutation a ledger row ever receives.
func (s *LedgerService) AttachOpportunity(recordID, opportunityID uint) error {
	result := s.db.Model(&models.ProcessedEmail{}).
		Where("id = ?", recordID).
		Update("opportunity_id", opportunityID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// GetRecord returns a ledger row by id
func (s *LedgerService) GetRecord(id uint) (*models.ProcessedEmail, error) {
	var record models.ProcessedEmail
	if err := s.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// CountProcessed returns the number of ledger rows for an account
func (s *LedgerService) CountProcessed(account string) (int64, error) {
	var count int64
	err := s.db.Model(&models.ProcessedEmail{}).
		Where("account = ?", account).
		Count(&count).Error
	return count, err
}

// isDuplicateKeyError recognizes a unique-constraint violation. Gorm's
// TranslateError covers sqlite and postgres; the string check is a
// fallback for drivers that slip through untranslated.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
