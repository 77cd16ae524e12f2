package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			input:    "Some **bold** text",
			contains: []string{"<strong>bold</strong>"},
		},
		{
			name:     "links get nofollow",
			input:    "[site](https://example.com)",
			contains: []string{`href="https://example.com"`, `rel="nofollow`},
		},
		{
			name:     "script is removed",
			input:    "hi <script>alert(1)</script>",
			excludes: []string{"<script", "alert(1)"},
		},
		{
			name:     "javascript links are dropped",
			input:    "[x](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
		{
			name:     "gfm strikethrough",
			input:    "~~old~~",
			contains: []string{"<del>old</del>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.input)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderer_RenderEmpty(t *testing.T) {
	out, err := NewRenderer().Render("   \n")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Hello world", StripTags("<b>Hello</b><br>world"))
	assert.Equal(t, "plain", StripTags("  plain  "))
	assert.Empty(t, StripTags("<script>x</script>"))
}

func TestContainsHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"empty string", "", false},
		{"plain text", "No markup here.", false},
		{"angle brackets but not HTML", "Use <stdin> and 2 > 1", false},
		{"paragraph", "<p>Para</p>", true},
		{"uppercase break", "Line<BR>Line", true},
		{"link", `<a href="x">x</a>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ContainsHTML(tt.input))
		})
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", HTMLToMarkdown("plain text"))
	assert.Equal(t, "**bold** move", HTMLToMarkdown("<p><strong>bold</strong> move</p>"))
	assert.Equal(t, "[Go](https://go.dev)", HTMLToMarkdown(`<a href="https://go.dev">Go</a>`))
}
