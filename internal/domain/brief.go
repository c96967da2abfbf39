package domain

import "time"

// DailyBrief is the narrative summary generated once per day by the
// scheduler's brief phase (§4.8).
type DailyBrief struct {
	DateUTC             string            `json:"date_utc" db:"date_utc"` // YYYY-MM-DD
	TotalMessages        int              `json:"total_messages" db:"total_messages"`
	UnreadCount          int              `json:"unread_count" db:"unread_count"`
	CategoryHistogram    map[Category]int `json:"category_histogram" db:"category_histogram"`
	PriorityHistogram    map[Priority]int `json:"priority_histogram" db:"priority_histogram"`
	Headline             string           `json:"headline" db:"headline"`
	Narrative             string          `json:"narrative" db:"narrative"` // <= ~200 words
	ActionItems           []string        `json:"action_items" db:"action_items"`
	Deadlines             []string        `json:"deadlines,omitempty" db:"deadlines"`
	KeyCharacters         []string        `json:"key_characters,omitempty" db:"key_characters"`
	Themes                []string        `json:"themes" db:"themes"`
	EstimatedReadSeconds  int             `json:"estimated_read_seconds" db:"estimated_read_seconds"`
	GeneratedAt           time.Time       `json:"generated_at" db:"generated_at"`
}

const wordsPerMinute = 200

// EstimateReadSeconds computes §4.8's read-time estimate from a word count.
func EstimateReadSeconds(wordCount int) int {
	return int(float64(wordCount) / float64(wordsPerMinute) * 60.0)
}
