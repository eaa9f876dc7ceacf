package models

// DashboardStats summarises the objectives owned by a user.
type DashboardStats struct {
	TotalObjectives     int64                     `json:"total_objectives"`
	ObjectivesByStatus  map[ObjectiveStatus]int64 `json:"objectives_by_status"`
	TotalKeyResults     int64                     `json:"total_key_results"`
	CompletedKeyResults int64                     `json:"completed_key_results"`
	AverageProgress     float64                   `json:"average_progress"`
}

// BuildDashboardStats computes stats from objectives with their key results loaded.
func BuildDashboardStats(objectives []Objective) DashboardStats {
	stats := DashboardStats{
		ObjectivesByStatus: map[ObjectiveStatus]int64{
			ObjectiveStatusDraft:     0,
			ObjectiveStatusActive:    0,
			ObjectiveStatusCompleted: 0,
			ObjectiveStatusCancelled: 0,
		},
	}

	var progressSum float64
	for i := range objectives {
		o := &objectives[i]
		stats.TotalObjectives++
		stats.ObjectivesByStatus[o.Status]++
		progressSum += FiniteOrZero(o.ProgressPercentage())

		for _, kr := range o.KeyResults {
			stats.TotalKeyResults++
			if kr.Status == KeyResultStatusCompleted {
				stats.CompletedKeyResults++
			}
		}
	}

	if stats.TotalObjectives > 0 {
		stats.AverageProgress = progressSum / float64(stats.TotalObjectives)
	}

	return stats
}
