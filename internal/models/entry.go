package models

// CompletionEntry records whether a habit was completed on a calendar day.
// (HabitID, Date) is unique.
type CompletionEntry struct {
	HabitID   string `json:"habitId"`
	Date      string `json:"date"` // YYYY-MM-DD, local calendar
	Completed bool   `json:"completed"`
}

// HabitStats is the derived statistics bundle for one habit.
type HabitStats struct {
	HabitID              string  `json:"habitId"`
	CurrentStreak        int     `json:"currentStreak"`
	LongestStreak        int     `json:"longestStreak"`
	CompletionRate30Days int     `json:"completionRate30Days"`
	CompletionRate7Days  int     `json:"completionRate7Days"`
	TotalCompletions     int     `json:"totalCompletions"`
	AveragePerWeek       float64 `json:"averagePerWeek"`
}
