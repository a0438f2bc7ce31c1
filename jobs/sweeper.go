package jobs

import (
	"time"

	tasks "bloem/task"
)

// StartCodeSweeper runs the expired-code cleanup on a fixed interval.
func StartCodeSweeper() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			<-ticker.C
			tasks.CleanupExpiredCodes()
		}
	}()
}
