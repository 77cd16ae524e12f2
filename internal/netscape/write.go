package netscape

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
)

const header = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

// Write renders entries as a flat Netscape bookmark file.
// Tags go in the TAGS attribute and descriptions in a <DD>.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(header); err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Fprintf(bw, `    <DT><A HREF="%s"`, html.EscapeString(e.URL))
		if !e.AddedAt.IsZero() {
			fmt.Fprintf(bw, ` ADD_DATE="%s"`, strconv.FormatInt(e.AddedAt.Unix(), 10))
		}
		if len(e.Tags) > 0 {
			fmt.Fprintf(bw, ` TAGS="%s"`, html.EscapeString(strings.Join(e.Tags, ",")))
		}
		fmt.Fprintf(bw, ">%s</A>\n", html.EscapeString(e.Title))

		if e.Description != "" {
			fmt.Fprintf(bw, "    <DD>%s\n", html.EscapeString(e.Description))
		}
	}

	if _, err := bw.WriteString("</DL><p>\n"); err != nil {
		return err
	}
	return bw.Flush()
}
