package recommend

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidKind is returned for an unknown recommendation kind.
	ErrInvalidKind = errors.New("invalid recommendation type")
	// ErrEmptyInput is returned when there is nothing to base recommendations on.
	ErrEmptyInput = errors.New("nothing to recommend from")
)

// Kind selects the prompt.
type Kind string

const (
	KindToRead  Kind = "to-read"
	KindHistory Kind = "based-on-history"
	KindCustom  Kind = "custom"
)

// MaxRecommendations caps the items returned from one reply.
const MaxRecommendations = 5

// ParseKind converts user input to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.TrimSpace(s)); k {
	case KindToRead, KindHistory, KindCustom:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// DefaultCount is the number of books asked for when a request sets none.
func (k Kind) DefaultCount() int {
	if k == KindToRead {
		return 1
	}
	return 3
}

// Book describes a book in the prompt context.
type Book struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Rating int    `json:"rating,omitempty"`
	Review string `json:"review,omitempty"`
}

// Request is one recommendation query.
type Request struct {
	Kind    Kind   `json:"type"`
	Count   int    `json:"count,omitempty"`
	ToRead  []Book `json:"toReadList,omitempty"`
	History []Book `json:"readingHistory,omitempty"`
	Custom  string `json:"customRequest,omitempty"`
}

// Validate checks the kind and that the input for it is present. The
// messages are shown to users as-is.
func (r Request) Validate() error {
	switch r.Kind {
	case KindToRead:
		if len(r.ToRead) == 0 {
			return fmt.Errorf("%w: Your to-read list is empty. Add some books first!", ErrEmptyInput)
		}
	case KindHistory:
		if len(r.History) == 0 {
			return fmt.Errorf("%w: Your reading history is empty. Mark some books as read first!", ErrEmptyInput)
		}
	case KindCustom:
		if strings.TrimSpace(r.Custom) == "" {
			return fmt.Errorf("%w: Please enter a request for custom recommendations.", ErrEmptyInput)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidKind)
	}
	return nil
}

func (r Request) normalized() Request {
	if r.Count == 0 {
		r.Count = r.Kind.DefaultCount()
	}
	r.Custom = strings.TrimSpace(r.Custom)
	return r
}

// Recommendation is one suggested book.
type Recommendation struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

// Sources of a Result.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Result is the answer to a Request.
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
	Cached          bool             `json:"cached"`
}
