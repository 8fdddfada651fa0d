package services

import (
	"encoding/json"
	"strings"

	"github.com/bambinounos/eia/internal/database/models"
	"gorm.io/gorm"
)

// LogService persists scan logging to the database so contained failures
// can be inspected and replayed later.
type LogService struct {
	db       *gorm.DB
	logLevel models.LogLevel
}

// NewLogService creates a new LogService instance with the default level
func NewLogService(db *gorm.DB) *LogService {
	return &LogService{
		db:       db,
		logLevel: models.LogLevelInfo,
	}
}

// NewLogServiceWithLevel creates a new LogService instance with the given level
func NewLogServiceWithLevel(db *gorm.DB, level string) *LogService {
	return &LogService{
		db:       db,
		logLevel: parseLogLevel(level),
	}
}

// parseLogLevel converts a string to LogLevel
func parseLogLevel(level string) models.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return models.LogLevelDebug
	case "INFO":
		return models.LogLevelInfo
	case "WARN", "WARNING":
		return models.LogLevelWarn
	case "ERROR":
		return models.LogLevelError
	default:
		return models.LogLevelInfo
	}
}

// shouldLog checks if a log entry should be recorded based on log level
func (s *LogService) shouldLog(level models.LogLevel) bool {
	levelPriority := map[models.LogLevel]int{
		models.LogLevelDebug: 0,
		models.LogLevelInfo:  1,
		models.LogLevelWarn:  2,
		models.LogLevelError: 3,
	}
	return levelPriority[level] >= levelPriority[s.logLevel]
}

// MessageContext identifies where in the scan a log entry came from.
// Fields are optional; a process-level entry leaves all of them empty.
type MessageContext struct {
	Account string
	Folder  string
	UID     string
}

// LogEntry represents a log entry to be created
type LogEntry struct {
	Level   models.LogLevel
	Module  models.LogModule
	Action  string
	Context MessageContext
	Message string
	Details interface{} // Will be serialized to JSON
}

// Log creates a new log entry
func (s *LogService) Log(entry LogEntry) error {
	if !s.shouldLog(entry.Level) {
		return nil
	}

	var detailsJSON string
	if entry.Details != nil {
		bytes, err := json.Marshal(entry.Details)
		if err != nil {
			detailsJSON = "{}"
		} else {
			detailsJSON = string(bytes)
		}
	}

	logRow := &models.ScanLog{
		Level:   string(entry.Level),
		Module:  string(entry.Module),
		Action:  entry.Action,
		Account: entry.Context.Account,
		Folder:  entry.Context.Folder,
		UID:     entry.Context.UID,
		Message: entry.Message,
		Details: detailsJSON,
	}
	return s.db.Create(logRow).Error
}

// LogInfo creates an INFO level log entry
func (s *LogService) LogInfo(ctx MessageContext, module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{Level: models.LogLevelInfo, Module: module, Action: action, Context: ctx, Message: message, Details: details})
}

// LogWarn creates a WARN level log entry
func (s *LogService) LogWarn(ctx MessageContext, module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{Level: models.LogLevelWarn, Module: module, Action: action, Context: ctx, Message: message, Details: details})
}

// LogError creates an ERROR level log entry
func (s *LogService) LogError(ctx MessageContext, module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{Level: models.LogLevelError, Module: module, Action: action, Context: ctx, Message: message, Details: details})
}

// LogDebug creates a DEBUG level log entry
func (s *LogService) LogDebug(ctx MessageContext, module models.LogModule, action, message string, details interface{}) error {
	return s.Log(LogEntry{Level: models.LogLevelDebug, Module: module, Action: action, Context: ctx, Message: message, Details: details})
}

// RecentLogs returns the most recent log entries, newest first
func (s *LogService) RecentLogs(limit int) ([]models.ScanLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.ScanLog
	err := s.db.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
