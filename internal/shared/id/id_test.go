package id

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{RecordPrefix, RequestPrefix, SpanPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}
		if !HasPrefix(id, prefix) {
			t.Errorf("ULID part should be valid: %s", id)
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	if rec := NewRecordID(); !IsRecordID(rec.String()) {
		t.Errorf("record ID malformed: %s", rec)
	}
	if req := NewRequestID(); !strings.HasPrefix(req.String(), "req_") {
		t.Errorf("request ID malformed: %s", req)
	}
	if span := NewSpanID(); !strings.HasPrefix(span.String(), "span_") {
		t.Errorf("span ID malformed: %s", span)
	}
	if _, err := uuid.Parse(NewNotificationID()); err != nil {
		t.Errorf("notification ID should be a UUID: %v", err)
	}
}

func TestIsRecordID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{string(NewRecordID()), true},
		{"rec_", false},
		{"rec_not-a-ulid", false},
		{"req_" + NewGenerator().GenerateString(), false},
		{NewGenerator().GenerateString(), false},
		{"", false},
		{"64f1c2a9e4b0a1b2c3d4e5f6", false},
	}

	for _, tt := range tests {
		if got := IsRecordID(tt.input); got != tt.want {
			t.Errorf("IsRecordID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	rec := NewRecordID()

	ts, err := Timestamp(rec.String())
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v outside expected window", ts)
	}

	if _, err := Timestamp("rec_garbage"); err == nil {
		t.Error("expected error for malformed ID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers, perWorker = 10, 100

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := gen.GenerateString()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}

func TestLexicographicSorting(t *testing.T) {
	gen := NewGenerator()

	ids := make([]string, 50)
	for i := range ids {
		ids[i] = gen.GenerateWithPrefix(RecordPrefix)
	}

	if !sort.StringsAreSorted(ids) {
		t.Error("IDs from one generator should sort in creation order")
	}
}

func BenchmarkGenerateWithPrefix(b *testing.B) {
	gen := NewGenerator()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = gen.GenerateWithPrefix(RecordPrefix)
	}
}
