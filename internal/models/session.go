package models

// DocumentSession represents one uploaded artifact under analysis.
// A session's Kind never changes after creation; switching input modes
// creates a new session. Sessions are transient and only become durable
// once the first analysis commits a HistoryEntry.
type DocumentSession struct {
	ID          string      `json:"id"`
	Kind        SessionKind `json:"kind"`
	Title       string      `json:"title"`
	Language    string      `json:"language"`
	CurrentPage int         `json:"currentPage,omitempty"` // pdf only
	TotalPages  int         `json:"totalPages,omitempty"`  // pdf only
}
