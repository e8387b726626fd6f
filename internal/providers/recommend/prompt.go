package recommend

import (
	"fmt"

	"github.com/bytedance/sonic"
)

const systemPrompt = "You are a helpful book recommendation assistant. Respond with book recommendations in valid JSON format only."

const formatInstructions = `

Please provide recommendations in the following JSON format:
[
  {
    "title": "Book Title 1",
    "author": "Author Name 1",
    "reason": "Brief explanation of why this book is recommended"
  },
  {
    "title": "Book Title 2",
    "author": "Author Name 2",
    "reason": "Brief explanation of why this book is recommended"
  }
]`

// buildPrompt renders the user message for a normalized request.
func buildPrompt(r Request) (string, error) {
	var prompt string
	switch r.Kind {
	case KindToRead:
		list, err := sonic.MarshalString(r.ToRead)
		if err != nil {
			return "", fmt.Errorf("encode to-read list: %w", err)
		}
		prompt = fmt.Sprintf("I have the following books on my to-read list. Please recommend %d books from this list that I should read next, with a brief explanation why:\n%s", r.Count, list)
	case KindHistory:
		history, err := sonic.MarshalString(r.History)
		if err != nil {
			return "", fmt.Errorf("encode reading history: %w", err)
		}
		prompt = fmt.Sprintf("Based on my reading history and ratings, please recommend %d new books I might enjoy, with explanations:\n%s", r.Count, history)
	case KindCustom:
		prompt = fmt.Sprintf("%s\nPlease recommend %d books that match this request, with brief explanations.", r.Custom, r.Count)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	return prompt + formatInstructions, nil
}
