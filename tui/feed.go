package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// FeedEntryType represents the kind of activity entry
type FeedEntryType string

const (
	// EntryRequest indicates an outgoing request
	EntryRequest FeedEntryType = "request"
	// EntryResponse indicates an incoming response
	EntryResponse FeedEntryType = "response"
	// EntryStatus indicates a local status change
	EntryStatus FeedEntryType = "status"
	// EntryRecording indicates microphone activity
	EntryRecording FeedEntryType = "recording"
	// EntryError indicates a failure
	EntryError FeedEntryType = "error"
	// EntryComplete indicates a successful run
	EntryComplete FeedEntryType = "complete"
)

// FeedEntry is a single line in the activity feed
type FeedEntry struct {
	Timestamp time.Time
	Type      FeedEntryType

	// Title is the main message text
	Title string

	// Detail is shown muted after the title
	Detail string

	// Latency of the response, if any
	Latency time.Duration
}

// Feed keeps recent activity in a scrolling viewport
type Feed struct {
	Entries  []FeedEntry
	Viewport viewport.Model

	// MaxEntries limits the number of entries kept (0 = unlimited)
	MaxEntries int

	now func() time.Time
}

// NewFeed creates a feed with the given dimensions
func NewFeed(width, height int) *Feed {
	vp := viewport.New(width, height)

	f := &Feed{
		Viewport:   vp,
		MaxEntries: 100,
		now:        time.Now,
	}
	f.Viewport.SetContent(f.Render())
	return f
}

// Add appends an entry and scrolls to the bottom
func (f *Feed) Add(entry FeedEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = f.now()
	}

	f.Entries = append(f.Entries, entry)

	if f.MaxEntries > 0 && len(f.Entries) > f.MaxEntries {
		f.Entries = f.Entries[len(f.Entries)-f.MaxEntries:]
	}

	f.Viewport.SetContent(f.Render())
	f.Viewport.GotoBottom()
}

// AddRequest records an outgoing request with a payload size
func (f *Feed) AddRequest(endpoint string, size int64) {
	f.Add(FeedEntry{
		Type:   EntryRequest,
		Title:  "POST " + endpoint,
		Detail: formatDataSize(size),
	})
}

// AddResponse records a response with its latency
func (f *Feed) AddResponse(title string, latency time.Duration, detail string) {
	f.Add(FeedEntry{
		Type:    EntryResponse,
		Title:   title,
		Detail:  detail,
		Latency: latency,
	})
}

// AddStatus records a local status change
func (f *Feed) AddStatus(title string, detail ...string) {
	f.Add(FeedEntry{
		Type:   EntryStatus,
		Title:  title,
		Detail: strings.Join(detail, ", "),
	})
}

// AddRecording records microphone activity
func (f *Feed) AddRecording(title string, detail ...string) {
	f.Add(FeedEntry{
		Type:   EntryRecording,
		Title:  title,
		Detail: strings.Join(detail, ", "),
	})
}

// AddError records a failure
func (f *Feed) AddError(title, message string) {
	f.Add(FeedEntry{
		Type:   EntryError,
		Title:  title,
		Detail: message,
	})
}

// AddComplete records a successful run
func (f *Feed) AddComplete(title string, latency time.Duration, detail ...string) {
	f.Add(FeedEntry{
		Type:    EntryComplete,
		Title:   title,
		Detail:  strings.Join(detail, ", "),
		Latency: latency,
	})
}

// SetSize updates the feed dimensions
func (f *Feed) SetSize(width, height int) {
	f.Viewport.Width = width
	f.Viewport.Height = height
	f.Viewport.SetContent(f.Render())
}

// View returns the viewport view for Bubble Tea
func (f *Feed) View() string {
	return f.Viewport.View()
}

// Render renders all entries to a string
func (f *Feed) Render() string {
	if len(f.Entries) == 0 {
		return MutedStyle.Render("No activity yet")
	}

	lines := make([]string, 0, len(f.Entries))
	for _, e := range f.Entries {
		lines = append(lines, renderEntry(e))
	}
	return strings.Join(lines, "\n")
}

func renderEntry(e FeedEntry) string {
	icon, style := entryStyle(e.Type)
	timestamp := MutedStyle.Render(e.Timestamp.Format("15:04:05"))

	var parts []string
	if e.Latency > 0 {
		parts = append(parts, fmt.Sprintf("%.1fs", e.Latency.Seconds()))
	}
	if e.Detail != "" {
		parts = append(parts, truncateString(e.Detail, 60))
	}

	var suffix string
	if len(parts) > 0 {
		if e.Type == EntryError {
			suffix = " " + lipgloss.NewStyle().Foreground(ColorError).Render("- "+strings.Join(parts, ", "))
		} else {
			suffix = " " + MutedStyle.Render("("+strings.Join(parts, ", ")+")")
		}
	}

	return fmt.Sprintf("%s %s %s%s", timestamp, style.Render(icon), style.Render(e.Title), suffix)
}

func entryStyle(t FeedEntryType) (string, lipgloss.Style) {
	switch t {
	case EntryRequest:
		return "[>]", lipgloss.NewStyle().Foreground(ColorSecondary)
	case EntryResponse:
		return "[<]", lipgloss.NewStyle().Foreground(ColorSuccess)
	case EntryRecording:
		return "[o]", lipgloss.NewStyle().Foreground(ColorRecording)
	case EntryError:
		return "[!]", lipgloss.NewStyle().Foreground(ColorError)
	case EntryComplete:
		return "[x]", lipgloss.NewStyle().Foreground(ColorSuccess)
	default:
		return "[-]", lipgloss.NewStyle().Foreground(ColorPrimary)
	}
}

func truncateString(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDataSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
