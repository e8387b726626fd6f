package books

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"`
	PageCount     int      `json:"pageCount"`
	Categories    []string `json:"categories"`
	ImageLinks    struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
}

// query builds the volumes search expression.
func query(title, author string) string {
	q := strings.TrimSpace(title)
	if a := strings.TrimSpace(author); a != "" {
		q += " inauthor:" + a
	}
	return q
}

// lookup performs one upstream attempt. A nil error means the upstream
// answered; the result may still be a miss.
func (c *Client) lookup(ctx context.Context, title, author string) (Result, error) {
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetQueryParam("q", query(title, author)).
			SetQueryParam("maxResults", "1").
			Get("/volumes")
	})
	if err != nil {
		return Result{}, err
	}
	return parseVolumes(resp.Body()), nil
}

// parseVolumes turns a volumes response into a Result. Malformed bodies and
// empty result sets are both misses.
func parseVolumes(body []byte) Result {
	var vr volumesResponse
	if err := sonic.Unmarshal(body, &vr); err != nil || len(vr.Items) == 0 {
		return fallback(ReasonNotFound)
	}

	info := vr.Items[0].VolumeInfo
	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}

	return Result{
		CoverImage: cover,
		Metadata: &Metadata{
			Title:         info.Title,
			Authors:       strings.Join(info.Authors, ", "),
			Description:   plainText(info.Description),
			PublishedDate: info.PublishedDate,
			PageCount:     info.PageCount,
			Categories:    info.Categories,
		},
		UseFallback: cover == "",
	}
}
