// Package timeline aggregates reading records into activity buckets.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Range selects how far back the timeline looks.
type Range string

const (
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"

	DefaultRange = RangeMonth
)

// ParseRange converts user input to a Range. Empty input is DefaultRange.
func ParseRange(s string) (Range, error) {
	switch r := Range(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return DefaultRange, nil
	case RangeWeek, RangeMonth, RangeYear:
		return r, nil
	default:
		return "", fmt.Errorf("invalid range %q: want week, month or year", s)
	}
}

// since returns the start of the window ending at now.
func (r Range) since(now time.Time) time.Time {
	switch r {
	case RangeWeek:
		return now.AddDate(0, 0, -7)
	case RangeYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, -1, 0)
	}
}

// bucket truncates t to its day, or its month for yearly timelines.
func (r Range) bucket(t time.Time) time.Time {
	if r == RangeYear {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (r Range) label(t time.Time) string {
	switch r {
	case RangeWeek:
		return t.Format("Mon")
	case RangeYear:
		return t.Format("Jan 2006")
	default:
		return t.Format("Jan 2")
	}
}

// Point is the activity of one bucket. ReadingSpeed is pages per hour,
// averaged over the bucket's books.
type Point struct {
	Label        string    `json:"date"`
	Start        time.Time `json:"start"`
	BooksRead    int       `json:"booksRead"`
	PagesRead    int       `json:"pagesRead"`
	TimeSpent    int       `json:"timeSpent"`
	ReadingSpeed int       `json:"readingSpeed"`
}

// Timeline is the result of Build.
type Timeline struct {
	Range  Range     `json:"range"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Points []Point   `json:"points"`

	TotalBooks   int     `json:"totalBooks"`
	TotalPages   int     `json:"totalPages"`
	TotalMinutes int     `json:"totalMinutes"`
	AverageSpeed float64 `json:"averageSpeed"`
}

type accumulator struct {
	point  Point
	speeds []float64
}

// Build groups the records created within r of now into buckets ordered by
// start time. Records from the future are ignored.
func Build(records []*record.Record, r Range, now time.Time) Timeline {
	from := r.since(now)
	tl := Timeline{Range: r, From: from, To: now, Points: []Point{}}

	buckets := make(map[time.Time]*accumulator)
	var allSpeeds []float64

	for _, rec := range records {
		created := rec.CreatedAt.In(now.Location())
		if created.Before(from) || created.After(now) {
			continue
		}

		start := r.bucket(created)
		acc, ok := buckets[start]
		if !ok {
			acc = &accumulator{point: Point{Label: r.label(start), Start: start}}
			buckets[start] = acc
		}

		acc.point.BooksRead++
		acc.point.PagesRead += rec.Pages
		acc.point.TimeSpent += rec.TimeSpent
		if rec.Pages > 0 && rec.TimeSpent > 0 {
			speed := float64(rec.Pages) / float64(rec.TimeSpent) * 60
			acc.speeds = append(acc.speeds, speed)
			allSpeeds = append(allSpeeds, speed)
		}
	}

	for _, acc := range buckets {
		if len(acc.speeds) > 0 {
			acc.point.ReadingSpeed = int(math.Round(floats.Sum(acc.speeds) / float64(acc.point.BooksRead)))
		}
		tl.Points = append(tl.Points, acc.point)
		tl.TotalBooks += acc.point.BooksRead
		tl.TotalPages += acc.point.PagesRead
		tl.TotalMinutes += acc.point.TimeSpent
	}
	sort.Slice(tl.Points, func(i, j int) bool {
		return tl.Points[i].Start.Before(tl.Points[j].Start)
	})

	if len(allSpeeds) > 0 {
		tl.AverageSpeed = math.Round(stat.Mean(allSpeeds, nil)*10) / 10
	}
	return tl
}
