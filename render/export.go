package render

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/yuin/goldmark"
)

// Markdown renders sections as a Markdown document
func Markdown(sections []Section) string {
	var b strings.Builder

	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", s.Heading)

		switch s.Kind {
		case SectionTitle:
			fmt.Fprintf(&b, "**%s**\n", s.Items[0].Text)
		case SectionStory:
			fmt.Fprintf(&b, "%s\n", s.Items[0].Text)
		case SectionCaptions:
			for _, item := range s.Items {
				fmt.Fprintf(&b, "%d. %s\n", item.Index+1, item.Text)
			}
		case SectionImages:
			for _, item := range s.Items {
				// Inline data URLs would bloat the document, so link the local file name
				target := item.URL
				if strings.HasPrefix(target, "data:") {
					target = item.FileName
				}
				fmt.Fprintf(&b, "![%s](%s)\n", item.Label, target)
			}
		}
	}

	return b.String()
}

// HTML renders sections as a standalone HTML page
func HTML(sections []Section, title string) (string, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(sections)), &body); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}

	var page strings.Builder
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("<style>body{font-family:sans-serif;max-width:48rem;margin:2rem auto;line-height:1.5}img{max-width:100%}</style>\n")
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

// WriteHTML writes the HTML export to path
func WriteHTML(path string, sections []Section, title string) error {
	doc, err := HTML(sections, title)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Notify shows a desktop notification, used for acknowledgements when no
// terminal UI is on screen
func Notify(text string) error {
	return zenity.Notify(text, zenity.Title("Kalasetu"), zenity.InfoIcon)
}
