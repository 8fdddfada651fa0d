package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bambinounos/eia/internal/services"
)

// ScanHandler exposes manual scan runs through the task API
type ScanHandler struct {
	scanner    *services.Scanner
	logService *services.LogService
}

// NewScanHandler creates a new ScanHandler instance
func NewScanHandler(scanner *services.Scanner, logService *services.LogService) *ScanHandler {
	return &ScanHandler{
		scanner:    scanner,
		logService: logService,
	}
}

// TriggerScan starts one scan cycle in the background and returns its run
// id immediately. Accounts already locked by the scheduler are skipped by
// the scanner itself.
// POST /api/v1/tasks/scan
func (h *ScanHandler) TriggerScan(c *gin.Context) {
	run := h.scanner.StartScan()

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"task_id": run.ID,
			"status":  run.Status,
		},
	})
}

// GetScanStatus returns the state of a previously started run. Runs are
// tracked in memory only, so ids from before a restart come back 404.
// GET /api/v1/tasks/scan/status/:task_id
func (h *ScanHandler) GetScanStatus(c *gin.Context) {
	run, ok := h.scanner.GetRun(c.Param("task_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Scan task not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    run,
	})
}
