package models

import (
	"time"
)

// ScanLog is a durable log entry produced while scanning mailboxes. Every
// contained failure is recorded with enough context (account, folder, uid)
// to manually replay the message later.
type ScanLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"`
	Module    string    `gorm:"size:50;index" json:"module"`
	Action    string    `gorm:"size:100" json:"action"`
	Account   string    `gorm:"size:255;index" json:"account,omitempty"`
	Folder    string    `gorm:"size:255" json:"folder,omitempty"`
	UID       string    `gorm:"size:64" json:"uid,omitempty"`
	Message   string    `gorm:"type:text" json:"message"`
	Details   string    `gorm:"type:text" json:"details"` // JSON string for additional details
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the table name stable across drivers
func (ScanLog) TableName() string {
	return "scan_logs"
}

// LogLevel represents the log level
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogModule represents the module that generated the log
type LogModule string

const (
	LogModuleScan     LogModule = "scan"
	LogModuleMail     LogModule = "mail"
	LogModuleAnalysis LogModule = "analysis"
	LogModuleStore    LogModule = "store"
	LogModuleAPI      LogModule = "api"
	LogModuleCLI      LogModule = "cli"
)
