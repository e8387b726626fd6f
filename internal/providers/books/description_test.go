package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "  A desert   planet. ", "A desert planet."},
		{"paragraphs", "<p>A <b>desert</b> planet.</p><p>Spice &amp; worms<br>and more</p>", "A desert planet.\n\nSpice & worms\nand more"},
		{"entities only", "Dune &amp; Children of Dune", "Dune & Children of Dune"},
		{"scripts dropped", "<p>Before</p><script>alert(1)</script><p>After</p>", "Before\n\nAfter"},
		{"list items", "<ul><li>One</li><li>Two</li></ul>", "One\n\nTwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plainText(tt.in))
		})
	}
}
