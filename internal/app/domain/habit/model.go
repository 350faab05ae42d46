package habit

import "time"

// Habit is a user-defined recurring activity tracked by calendar-date
// completion. DoneDates holds the days the habit was marked complete, each
// a YYYY-MM-DD string; the slice is deduplicated and sorted ascending
// whenever it is persisted or returned.
type Habit struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	DoneDates []string  `json:"doneDates"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
