package logging

import (
	"log/slog"
	"time"

	"github.com/menolabs/wellness-backend/internal/models"
	"gorm.io/gorm"
)

// System logs carry error strings that may reference user ids, so they get
// a retention window of their own.
const systemLogRetentionDays = 30

// StartCleanup prunes old system_logs once at startup and then daily.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		pruneSystemLogs(db)
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pruneSystemLogs(db)
			case <-done:
				return
			}
		}
	}()
}

func pruneSystemLogs(db *gorm.DB) {
	cutoff := time.Now().AddDate(0, 0, -systemLogRetentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("system log cleanup failed", "error", result.Error)
	} else if result.RowsAffected > 0 {
		slog.Info("system log cleanup completed", "deleted", result.RowsAffected)
	}
}
