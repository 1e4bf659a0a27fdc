package references

import "time"

// Reference represents an uploaded reference image owned by a user. A page
// generation can point at one to guide composition.
type Reference struct {
	ID               string
	UserID           string
	FileName         string
	OriginalFilename string
	MimeType         string
	ContentType      string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	CreatedAt        time.Time
}
