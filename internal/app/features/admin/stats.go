// internal/app/features/admin/stats.go
package admin

import (
	"time"

	"github.com/dalemusser/inboxhub/internal/domain/models"
)

// Stats summarizes the user base for the admin panel.
type Stats struct {
	TotalUsers  int
	ActiveUsers int
	NewToday    int
	NewThisWeek int
}

// ComputeStats derives panel statistics from a user listing. "Today" starts
// at local midnight of now; "this week" covers the seven days ending there,
// so the two buckets overlap and NewThisWeek >= NewToday always holds.
func ComputeStats(users []models.User, now time.Time) Stats {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := midnight.AddDate(0, 0, -7)

	s := Stats{TotalUsers: len(users)}
	for _, u := range users {
		if u.IsActive {
			s.ActiveUsers++
		}
		if !u.CreatedAt.Before(midnight) {
			s.NewToday++
		}
		if !u.CreatedAt.Before(weekStart) {
			s.NewThisWeek++
		}
	}
	return s
}
