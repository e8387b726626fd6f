// Package id provides centralized ID generation for the backend.
//
// Record, request and span identifiers are prefixed ULIDs (rec_*, req_*,
// span_*): lexicographically sortable by creation time and readable in logs.
// Notification identifiers are UUIDv4 since clients only use them to
// deduplicate toasts.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RecordID identifies a reading record
type RecordID string

// RequestID identifies an API request
type RequestID string

// SpanID identifies a traced span within a request
type SpanID string

const (
	RecordPrefix  = "rec"
	RequestPrefix = "req"
	SpanPrefix    = "span"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator whose IDs stay ordered within a millisecond.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRecordID generates a new reading record ID
func NewRecordID() RecordID {
	return RecordID(Default().GenerateWithPrefix(RecordPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSpanID generates a new span ID
func NewSpanID() SpanID {
	return SpanID(Default().GenerateWithPrefix(SpanPrefix))
}

// NewNotificationID generates a random notification ID.
func NewNotificationID() string {
	return uuid.NewString()
}

func (id RecordID) String() string  { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id SpanID) String() string    { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// HasPrefix reports whether id is "<prefix>_<ULID>".
func HasPrefix(id, prefix string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"_")
	return ok && IsValid(rest)
}

// IsRecordID reports whether s is a well-formed record ID.
func IsRecordID(s string) bool {
	return HasPrefix(s, RecordPrefix)
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from a ULID, with or without prefix.
func Timestamp(id string) (time.Time, error) {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
