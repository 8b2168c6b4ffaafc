package storage

// Shop represents one eating option scoped to a single conversation.
// The (ChatID, Name) pair is unique.
type Shop struct {
	ID         int64   `json:"id"`
	ChatID     string  `json:"chat_id"`
	Name       string  `json:"name"`
	ClosedDays []int   `json:"closed_days"` // weekdays 0=Sunday..6=Saturday the shop is closed
	Rate       float64 `json:"rate"`        // acceptance probability weight, default 1
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// ClosedOn reports whether the shop is closed on the given weekday (0=Sunday).
func (s *Shop) ClosedOn(weekday int) bool {
	for _, d := range s.ClosedDays {
		if d == weekday {
			return true
		}
	}
	return false
}
