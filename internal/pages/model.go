package pages

import "time"

// Page represents one coloring page generation job and its outcome.
type Page struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	BatchID           string         `json:"batchId,omitempty"`
	Subject           string         `json:"subject"`
	StyleID           string         `json:"styleId"`
	ComplexityID      string         `json:"complexityId"`
	AudienceID        string         `json:"audienceId"`
	AspectRatio       string         `json:"aspectRatio"`
	ResolutionTier    string         `json:"resolutionTier"`
	ReferenceImageURL string         `json:"referenceImageUrl,omitempty"`
	Temperature       float64        `json:"temperature"`
	Provider          string         `json:"provider"`
	Model             string         `json:"model"`
	Status            string         `json:"status"`
	ImageURL          string         `json:"imageUrl,omitempty"`
	QualityScore      float64        `json:"qualityScore"`
	IsPublishable     bool           `json:"isPublishable"`
	TotalAttempts     int            `json:"totalAttempts"`
	Result            map[string]any `json:"result,omitempty"`
	ErrorCode         string         `json:"errorCode,omitempty"`
	ErrorMessage      *string        `json:"errorMessage,omitempty"`
	ErrorRetryable    bool           `json:"errorRetryable,omitempty"`
	StartedAt         *time.Time     `json:"startedAt,omitempty"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}
