package batches

import "time"

// Batch represents a coloring book: a themed set of pages generated together.
type Batch struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	Theme        string     `json:"theme,omitempty"`
	StyleID      string     `json:"styleId"`
	ComplexityID string     `json:"complexityId"`
	AudienceID   string     `json:"audienceId"`
	PageCount    int        `json:"pageCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	DeletedAt    *time.Time `json:"-"`
}

// Progress summarizes the state of a batch's pages.
type Progress struct {
	Status     string `json:"status"`
	Total      int    `json:"total"`
	Queued     int    `json:"queued"`
	Processing int    `json:"processing"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
}
