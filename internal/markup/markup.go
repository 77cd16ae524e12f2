// Package markup renders bookmark descriptions and cleans imported text.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer turns Markdown descriptions into sanitized HTML.
// A Renderer is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer creates a renderer with GitHub-flavored Markdown and the
// user-generated-content sanitizing policy.
func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: policy,
	}
}

// Render converts Markdown to HTML safe to embed in a page.
func (r *Renderer) Render(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}

var strictPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// StripTags removes all markup from s, leaving plain text with collapsed
// whitespace.
func StripTags(s string) string {
	return strings.Join(strings.Fields(strictPolicy.Sanitize(s)), " ")
}
