package engine

import "fmt"

const milestoneStep = 50

// Milestone describes progress toward the next perfect-day threshold.
// Thresholds sit at 50, 100, 150 and then every further 50. The percentage
// is cumulative against the upcoming absolute threshold, not within the
// current 50-day band: 120 perfect days shows 80% of 150, not 40%.
type Milestone struct {
	NextMilestone      int     `json:"nextMilestone"`
	CurrentCount       int     `json:"currentCount"`
	ProgressPercentage float64 `json:"progressPercentage"`
	DaysRemaining      int     `json:"daysRemaining"`
}

// MilestoneFor maps a perfect-day count to its milestone report. The only
// failure mode is a negative count.
func MilestoneFor(count int) (Milestone, error) {
	if count < 0 {
		return Milestone{}, fmt.Errorf("invalid perfect day count: %d", count)
	}

	next := milestoneStep * (count/milestoneStep + 1)
	return Milestone{
		NextMilestone:      next,
		CurrentCount:       count,
		ProgressPercentage: 100 * float64(count) / float64(next),
		DaysRemaining:      next - count,
	}, nil
}
