package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ingestHTML produces one chunk per paragraph-level element, tagged with the
// nearest preceding heading text. Script and style content is dropped before
// traversal.
func ingestHTML(data []byte) ([]Chunk, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	doc.Find("script, style, noscript").Remove()

	var chunks []Chunk
	var section string

	doc.Find("h1, h2, h3, h4, p, li, blockquote, td").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "h1", "h2", "h3", "h4":
			section = strings.TrimSpace(s.Text())
		default:
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			chunks = append(chunks, Chunk{
				Text:    text,
				Section: section,
			})
		}
	})

	return chunks, nil
}
