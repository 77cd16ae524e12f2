// Package netscape reads and writes the Netscape bookmark file format that
// browsers and bookmarking services use for import and export.
package netscape

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/tagmark/tagmark-server/internal/markup"
)

// Entry is one bookmark in a Netscape file.
type Entry struct {
	Title       string
	URL         string
	Description string // Markdown
	Tags        []string
	Folder      string // Folder path joined with "/", empty at the root
	AddedAt     time.Time
}

// Parse reads a Netscape bookmark file. Links without an HREF are skipped.
// A <DD> following a link becomes that link's description, converted from
// HTML to Markdown when it carries markup.
func Parse(r io.Reader) ([]Entry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bookmark file: %w", err)
	}

	var (
		entries       []Entry
		folders       []string
		pendingFolder string
		last          *Entry
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h3":
				pendingFolder = textContent(n)
				last = nil
				return

			case "a":
				href := getAttr(n, "href")
				if href == "" {
					last = nil
					return
				}

				e := Entry{
					Title:   textContent(n),
					URL:     href,
					Tags:    splitTags(getAttr(n, "tags")),
					Folder:  strings.Join(folders, "/"),
					AddedAt: parseUnix(getAttr(n, "add_date")),
				}
				entries = append(entries, e)
				last = &entries[len(entries)-1]
				return

			case "dd":
				if last != nil && last.Description == "" {
					last.Description = description(n)
				}
				last = nil

				// A folder's DD can wrap the folder's own list.
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && c.Data == "dl" {
						walk(c)
					}
				}
				return

			case "dl":
				pushed := false
				if pendingFolder != "" {
					folders = append(folders, pendingFolder)
					pendingFolder = ""
					pushed = true
				}

				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c)
				}

				if pushed {
					folders = folders[:len(folders)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return entries, nil
}

// description returns the direct content of a DD element, stopping at any
// nested list.
func description(n *html.Node) string {
	var buf bytes.Buffer
	hasMarkup := false

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.Data == "dl" || c.Data == "dt" {
				break
			}
			hasMarkup = true
		}
		if err := html.Render(&buf, c); err != nil {
			return strings.TrimSpace(textContent(n))
		}
	}

	if !hasMarkup {
		return strings.TrimSpace(html.UnescapeString(buf.String()))
	}
	return markup.HTMLToMarkdown(strings.TrimSpace(buf.String()))
}

// textContent returns the trimmed text of a node and its descendants.
func textContent(n *html.Node) string {
	var text strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// getAttr returns an attribute value. The parser lowercases keys.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func parseUnix(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}
