package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jo-oikawa/very-good-reads/backend/internal/domain/record"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/books"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/recommend"
	"go.uber.org/zap"
)

// Recommend suggests books. The to-read list and reading history come from
// the record store unless the request carries its own.
func (h *Handlers) Recommend(c *gin.Context) {
	var req recommend.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	kind, err := recommend.ParseKind(string(req.Kind))
	if err != nil {
		h.fail(c, err)
		return
	}
	req.Kind = kind

	ctx := c.Request.Context()
	switch {
	case kind == recommend.KindToRead && len(req.ToRead) == 0:
		recs, err := h.records.ListByStatus(ctx, record.StatusToRead)
		if err != nil {
			h.fail(c, err)
			return
		}
		req.ToRead = toBooks(recs)
	case kind == recommend.KindHistory && len(req.History) == 0:
		recs, err := h.records.ListByStatus(ctx, record.StatusRead)
		if err != nil {
			h.fail(c, err)
			return
		}
		req.History = toBooks(recs)
	}

	res, err := h.recommend.Get(ctx, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	candidates := make([]books.Candidate, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		candidates = append(candidates, books.Candidate{Title: r.Title, Author: r.Author})
	}
	h.books.Preload(candidates)

	h.log.Debug("Recommendations served",
		zap.String("kind", string(kind)),
		zap.String("source", res.Source),
		zap.Bool("cached", res.Cached),
		zap.Int("count", len(res.Recommendations)))
	c.JSON(http.StatusOK, res)
}

func toBooks(recs []*record.Record) []recommend.Book {
	out := make([]recommend.Book, 0, len(recs))
	for _, r := range recs {
		b := recommend.Book{ID: r.ID, Title: r.Title, Author: r.Author}
		if r.Review != nil {
			b.Rating = r.Review.Stars
			b.Review = r.Review.Description
		}
		out = append(out, b)
	}
	return out
}
