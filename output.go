package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"kalasetu/pipeline"
	"kalasetu/render"
	"kalasetu/tui"

	"github.com/charmbracelet/lipgloss"
)

// resultJSON is the --json output of generate
type resultJSON struct {
	RunID      string   `json:"runId,omitempty"`
	Title      string   `json:"productTitle"`
	Story      string   `json:"productStory"`
	Captions   []string `json:"socialMediaCaptions"`
	ImageURLs  []string `json:"imageUrls"`
	Transcript string   `json:"transcript,omitempty"`
	Downloads  []string `json:"downloads,omitempty"`
}

func writeJSON(w io.Writer, out resultJSON) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newResultJSON(result *pipeline.GenerationResult) resultJSON {
	out := resultJSON{
		Title:     result.Title,
		Story:     result.Story,
		Captions:  result.Captions,
		ImageURLs: result.ImageURLs,
	}
	if out.Captions == nil {
		out.Captions = []string{}
	}
	if out.ImageURLs == nil {
		out.ImageURLs = []string{}
	}
	return out
}

// printSections writes rendered sections as styled boxes
func printSections(w io.Writer, sections []render.Section, width int) {
	if len(sections) == 0 {
		fmt.Fprintln(w, tui.MutedStyle.Render("The service returned no content."))
		return
	}

	fmt.Fprintln(w, tui.TitleStyle.Render("Results"))

	for _, s := range sections {
		var b strings.Builder
		for _, item := range s.Items {
			switch s.Kind {
			case render.SectionTitle:
				b.WriteString(lipgloss.NewStyle().Bold(true).Render(item.Text))
			case render.SectionCaptions:
				fmt.Fprintf(&b, "%d. %s\n", item.Index+1, item.Text)
			case render.SectionImages:
				fmt.Fprintf(&b, "%s  %s\n", item.Label, tui.MutedStyle.Render(displayURL(item.URL)))
			default:
				b.WriteString(item.Text)
			}
		}
		content := strings.TrimRight(b.String(), "\n")
		if content == "" {
			content = tui.MutedStyle.Render("(none)")
		}
		fmt.Fprintln(w, tui.Card(s.Heading, content, width))
	}
}

// displayURL shortens data URLs, which can be megabytes long
func displayURL(u string) string {
	if strings.HasPrefix(u, "data:") {
		mediaType, _, _ := strings.Cut(strings.TrimPrefix(u, "data:"), ",")
		return fmt.Sprintf("(inline %s, %d bytes)", mediaType, len(u))
	}
	return u
}
