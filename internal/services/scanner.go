package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bambinounos/eia/internal/analysis"
	"github.com/bambinounos/eia/internal/config"
	"github.com/bambinounos/eia/internal/database/models"
)

// ErrScanAlreadyRunning indicates an account is still locked by a
// previous cycle
var ErrScanAlreadyRunning = errors.New("scan already running for account")

// Scan run states exposed through the task status endpoint
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AccountScanResult aggregates one account's outcome within a cycle.
// A non-empty Error means the account was abandoned mid-cycle; work done
// before the failure still counts.
type AccountScanResult struct {
	Account       string `json:"account"`
	Seen          int    `json:"seen"`
	Processed     int    `json:"processed"`
	Duplicates    int    `json:"duplicates"`
	Opportunities int    `json:"opportunities"`
	Failures      int    `json:"failures"`
	Error         string `json:"error,omitempty"`
}

// ScanSummary is the aggregate outcome of one full cycle over all accounts
type ScanSummary struct {
	StartedAt     time.Time           `json:"started_at"`
	FinishedAt    time.Time           `json:"finished_at"`
	Seen          int                 `json:"seen"`
	Processed     int                 `json:"processed"`
	Duplicates    int                 `json:"duplicates"`
	Opportunities int                 `json:"opportunities"`
	Accounts      []AccountScanResult `json:"accounts"`
}

// ScanRun tracks one asynchronous scan for the task API
type ScanRun struct {
	ID         string       `json:"task_id"`
	Status     string       `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Summary    *ScanSummary `json:"summary,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Scanner orchestrates the detection pipeline: fetch unread messages,
// claim each one in the ledger, analyze it, persist relevant results, and
// flag the batch as seen. Failures are contained at the narrowest possible
// scope so one bad account or message never stops the rest of the cycle.
type Scanner struct {
	cfg           *config.Config
	ledger        *LedgerService
	opportunities *OpportunityService
	logService    *LogService
	analyzer      analysis.Analyzer
	dial          ConnectorDialer

	// One lock per account so overlapping cycles skip instead of queueing
	accountLocks sync.Map

	runsMutex sync.RWMutex
	runs      map[string]*ScanRun
}

// NewScanner creates the scan orchestrator over the production IMAP dialer
func NewScanner(cfg *config.Config, ledger *LedgerService, opportunities *OpportunityService, logService *LogService, analyzer analysis.Analyzer) *Scanner {
	return NewScannerWithDialer(cfg, ledger, opportunities, logService, analyzer, DialIMAP)
}

// NewScannerWithDialer creates a scanner with a custom connector dialer
func NewScannerWithDialer(cfg *config.Config, ledger *LedgerService, opportunities *OpportunityService, logService *LogService, analyzer analysis.Analyzer, dial ConnectorDialer) *Scanner {
	return &Scanner{
		cfg:           cfg,
		ledger:        ledger,
		opportunities: opportunities,
		logService:    logService,
		analyzer:      analyzer,
		dial:          dial,
		runs:          make(map[string]*ScanRun),
	}
}

// ProcessAllAccounts runs one full cycle over every configured account.
// Accounts are scanned concurrently; an account whose previous cycle is
// still holding its lock is skipped, not queued.
func (s *Scanner) ProcessAllAccounts() *ScanSummary {
	summary := &ScanSummary{StartedAt: time.Now().UTC()}

	log.Printf("[Scanner] Starting scan cycle for %d account(s)", len(s.cfg.EmailAccounts))
	s.logService.LogInfo(MessageContext{}, models.LogModuleScan, "cycle_start",
		fmt.Sprintf("scan cycle started for %d account(s)", len(s.cfg.EmailAccounts)), nil)

	results := make([]AccountScanResult, len(s.cfg.EmailAccounts))
	var wg sync.WaitGroup
	for i := range s.cfg.EmailAccounts {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = s.processAccount(s.cfg.EmailAccounts[idx])
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		summary.Seen += r.Seen
		summary.Processed += r.Processed
		summary.Duplicates += r.Duplicates
		summary.Opportunities += r.Opportunities
	}
	summary.Accounts = results
	summary.FinishedAt = time.Now().UTC()

	log.Printf("[Scanner] Cycle done: %d seen, %d processed, %d duplicates, %d opportunities",
		summary.Seen, summary.Processed, summary.Duplicates, summary.Opportunities)
	s.logService.LogInfo(MessageContext{}, models.LogModuleScan, "cycle_done", "scan cycle finished", summary)

	return summary
}

// processAccount scans every configured folder of one account. Any error
// is contained here: it is logged, recorded on the result, and never
// propagated to sibling accounts.
func (s *Scanner) processAccount(account config.EmailAccount) AccountScanResult {
	result := AccountScanResult{Account: account.Email}

	lockValue, _ := s.accountLocks.LoadOrStore(account.Email, &sync.Mutex{})
	lock := lockValue.(*sync.Mutex)
	if !lock.TryLock() {
		log.Printf("[Scanner] Account %s still scanning, skipping this cycle", account.Email)
		result.Error = ErrScanAlreadyRunning.Error()
		return result
	}
	defer lock.Unlock()

	conn, err := s.dial(account)
	if err != nil {
		log.Printf("[Scanner] Connection to %s failed: %v", account.Email, err)
		s.logService.LogError(MessageContext{Account: account.Email}, models.LogModuleMail,
			"connect", err.Error(), nil)
		result.Error = err.Error()
		return result
	}
	defer conn.Close()

	deadline := time.Now().Add(s.cfg.AccountBudget())

	for _, folder := range account.FoldersToScan {
		if time.Now().After(deadline) {
			s.logService.LogWarn(MessageContext{Account: account.Email, Folder: folder},
				models.LogModuleScan, "budget_exceeded",
				"account budget exhausted, remaining folders deferred to next cycle", nil)
			break
		}
		if err := s.processFolder(conn, account, folder, deadline, &result); err != nil {
			// Fetch errors invalidate the session; abandon the account
			s.logService.LogError(MessageContext{Account: account.Email, Folder: folder},
				models.LogModuleMail, "fetch", err.Error(), nil)
			result.Error = err.Error()
			return result
		}
	}
	return result
}

// processFolder fetches the folder's unread messages and runs each through
// the pipeline. Only connector errors propagate; per-message analysis and
// store failures are contained inside the loop.
func (s *Scanner) processFolder(conn MailConnector, account config.EmailAccount, folder string, deadline time.Time, result *AccountScanResult) error {
	messages, err := conn.FetchUnread(folder)
	if err != nil {
		return err
	}
	result.Seen += len(messages)

	var processedUIDs []uint32
	for _, msg := range messages {
		if time.Now().After(deadline) {
			s.logService.LogWarn(MessageContext{Account: account.Email, Folder: folder},
				models.LogModuleScan, "budget_exceeded",
				"account budget exhausted mid-folder", nil)
			break
		}
		switch s.processMessage(account.Email, msg, result) {
		case messageProcessed:
			result.Processed++
			processedUIDs = append(processedUIDs, msg.UID)
		case messageDuplicate:
			result.Duplicates++
		case messageFailed:
			result.Failures++
		}
	}

	// One batched store per folder; the ledger already protects against
	// reprocessing, so a failed flag update is only a warning
	if s.cfg.IMAP.MarkAsSeen && len(processedUIDs) > 0 {
		if err := conn.MarkRead(folder, processedUIDs); err != nil {
			log.Printf("[Scanner] Mark-read failed for %s/%s: %v", account.Email, folder, err)
			s.logService.LogWarn(MessageContext{Account: account.Email, Folder: folder},
				models.LogModuleMail, "mark_read", err.Error(),
				map[string]int{"uids": len(processedUIDs)})
		}
	}
	return nil
}

type messageOutcome int

const (
	messageProcessed messageOutcome = iota
	messageDuplicate
	messageFailed
)

// processMessage runs the per-message pipeline: ledger claim first, then
// analysis, then the conditional opportunity write. The claim commits
// before analysis starts, so no message is ever analyzed twice.
func (s *Scanner) processMessage(accountEmail string, msg RawMessage, result *AccountScanResult) messageOutcome {
	uid := strconv.FormatUint(uint64(msg.UID), 10)
	ctx := MessageContext{Account: accountEmail, Folder: msg.Folder, UID: uid}

	// Fast path; the insert below is the authoritative check
	if done, err := s.ledger.IsProcessed(accountEmail, uid, msg.Folder); err == nil && done {
		return messageDuplicate
	}

	record, err := s.ledger.RecordProcessed(accountEmail, uid, msg.Folder)
	if err != nil {
		if errors.Is(err, ErrDuplicateMessage) {
			// A concurrent run won the claim; their row, their message
			return messageDuplicate
		}
		s.logService.LogError(ctx, models.LogModuleStore, "ledger_insert", err.Error(), nil)
		return messageFailed
	}

	analyzed, err := s.analyzer.Analyze(msg.Body)
	if err != nil {
		// The claim stands: record a degraded result and move on rather
		// than retrying the message forever
		log.Printf("[Scanner] Analysis failed for %s/%s uid %s: %v", accountEmail, msg.Folder, uid, err)
		s.logService.LogError(ctx, models.LogModuleAnalysis, "analyze", err.Error(), nil)
		analyzed = analysis.Degraded()
	}

	s.logService.LogDebug(ctx, models.LogModuleAnalysis, "analyzed", analyzed.Classification,
		map[string]interface{}{"relevant": analyzed.IsRelevant, "confidence": analyzed.RelevanceConfidence})

	if analyzed.IsRelevant {
		_, err := s.opportunities.CreateOpportunity(CreateOpportunityInput{
			SourceEmailID:            record.ID,
			Subject:                  msg.Subject,
			Sender:                   msg.Sender,
			OriginalBody:             msg.Body,
			Classification:           analyzed.Classification,
			ClassificationConfidence: analyzed.ClassificationConfidence,
			Summary:                  analyzed.Summary,
			IsRelevant:               analyzed.IsRelevant,
			RelevanceConfidence:      analyzed.RelevanceConfidence,
			EntityName:               analyzed.Entities.Organization,
			EntityContactEmail:       analyzed.Entities.ContactEmail,
			EntityDeadline:           analyzed.Entities.Deadline,
			EntityAmount:             analyzed.Entities.Amount,
			Products:                 analyzed.Entities.Products,
		})
		if err != nil {
			// The ledger row stays; the opportunity for this message is
			// lost rather than risking a duplicate on retry
			log.Printf("[Scanner] Opportunity store failed for %s/%s uid %s: %v", accountEmail, msg.Folder, uid, err)
			s.logService.LogError(ctx, models.LogModuleStore, "opportunity_create", err.Error(), nil)
		} else {
			result.Opportunities++
			s.logService.LogInfo(ctx, models.LogModuleScan, "opportunity_detected",
				analyzed.Classification, map[string]interface{}{"subject": msg.Subject})
		}
	}

	return messageProcessed
}

// StartScan launches one cycle in the background and returns a run id the
// task API can poll. Runs are kept in memory only; a restart forgets them.
func (s *Scanner) StartScan() *ScanRun {
	run := &ScanRun{
		ID:        uuid.New().String(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.runsMutex.Lock()
	s.runs[run.ID] = run
	s.runsMutex.Unlock()

	go func() {
		summary := s.ProcessAllAccounts()

		s.runsMutex.Lock()
		defer s.runsMutex.Unlock()
		now := time.Now().UTC()
		run.FinishedAt = &now
		run.Summary = summary
		run.Status = RunStatusCompleted
		for _, acc := range summary.Accounts {
			if acc.Error != "" && acc.Error != ErrScanAlreadyRunning.Error() {
				run.Status = RunStatusFailed
				run.Error = fmt.Sprintf("%s: %s", acc.Account, acc.Error)
				break
			}
		}
	}()

	return run
}

// GetRun returns the tracked run for the given id
func (s *Scanner) GetRun(id string) (*ScanRun, bool) {
	s.runsMutex.RLock()
	defer s.runsMutex.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, false
	}
	copied := *run
	return &copied, true
}
