package plan

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// DistributeDurations splits horizonDays across n tasks in whole days.
// Every task gets at least one day; the remainder goes to the first tasks.
// When n > horizonDays the total is n, not horizonDays.
func DistributeDurations(horizonDays, n int) []int {
	if n <= 0 {
		return []int{}
	}
	base := max(1, horizonDays/n)
	remainder := max(0, horizonDays-base*n)

	durations := make([]int, n)
	for i := range durations {
		durations[i] = base
		if i < remainder {
			durations[i]++
		}
	}
	return durations
}

// Schedule lays tasks out back to back starting at start, in list order.
// A day is a fixed 24h span so EstimatedDays always matches the allotted
// duration, even across DST changes. Dependencies are never consulted.
func Schedule(start time.Time, tasks []Task, horizonDays int) []ScheduledTask {
	durations := DistributeDurations(horizonDays, len(tasks))
	out := make([]ScheduledTask, len(tasks))

	cursor := start
	for i := range tasks {
		end := cursor.Add(time.Duration(durations[i]) * day)
		out[i] = ScheduledTask{
			Task:          tasks[i],
			StartDate:     cursor,
			EndDate:       end,
			EstimatedDays: EstimatedDays(cursor, end),
		}
		cursor = end
	}
	return out
}

// EstimatedDays derives a task's length from its dates: whole days rounded
// up, never less than one.
func EstimatedDays(start, end time.Time) int {
	days := int(math.Ceil(float64(end.Sub(start)) / float64(day)))
	return max(1, days)
}

// TotalDays sums the estimated days of scheduled tasks.
func TotalDays(tasks []ScheduledTask) int {
	total := 0
	for i := range tasks {
		total += tasks[i].EstimatedDays
	}
	return total
}
