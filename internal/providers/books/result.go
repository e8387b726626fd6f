package books

import "strings"

// Fallback reasons shown to users.
const (
	ReasonNotFound  = "No book information found"
	ReasonFailed    = "Failed to fetch book information"
	ReasonCancelled = "Lookup cancelled"
	ReasonNoTitle   = "Title is required"
	ReasonClosed    = "Lookup service stopped"
)

// Metadata is the descriptive part of a volume.
type Metadata struct {
	Title         string   `json:"title"`
	Authors       string   `json:"authors,omitempty"`
	Description   string   `json:"description,omitempty"`
	PublishedDate string   `json:"publishedDate,omitempty"`
	PageCount     int      `json:"pageCount,omitempty"`
	Categories    []string `json:"categories,omitempty"`
}

// Result is the outcome of a lookup. UseFallback is set whenever there is no
// cover to show, including when metadata was found without an image.
type Result struct {
	CoverImage  string    `json:"coverImage,omitempty"`
	Metadata    *Metadata `json:"metadata,omitempty"`
	UseFallback bool      `json:"useFallback"`
	Reason      string    `json:"error,omitempty"`
}

// Found reports whether the upstream returned a matching volume.
func (r Result) Found() bool {
	return r.Metadata != nil
}

func fallback(reason string) Result {
	return Result{UseFallback: true, Reason: reason}
}

// Candidate is a book to preload.
type Candidate struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// CacheKey identifies a book regardless of letter case.
func CacheKey(title, author string) string {
	return strings.ToLower(strings.TrimSpace(title) + "-" + strings.TrimSpace(author))
}
