package tasks

import (
	"time"

	"bloem/database"
	"bloem/models"

	log "github.com/sirupsen/logrus"
)

// CleanupExpiredCodes deletes payment codes well past expiry. Expiry itself
// is enforced lazily at resolve time; this only keeps the table from growing
// forever.
func CleanupExpiredCodes() {
	cutoff := time.Now().Add(-24 * time.Hour)
	result := database.DB.
		Unscoped().
		Where("expires_at < ?", cutoff).
		Delete(&models.PaymentCode{})

	if result.Error != nil {
		log.Println("❌ Failed to delete expired payment codes:", result.Error)
	} else if result.RowsAffected > 0 {
		log.Printf("✅ Deleted %d payment codes expired before %s", result.RowsAffected, cutoff.Format(time.RFC3339))
	}
}
