// Package render turns a generation result into display sections with
// copy and download actions.
package render

import (
	"fmt"

	"kalasetu/pipeline"
)

// SectionKind identifies one block of rendered output
type SectionKind int

const (
	SectionTitle SectionKind = iota
	SectionStory
	SectionCaptions
	SectionImages
)

// Section headings as displayed
const (
	HeadingTitle    = "Product Title"
	HeadingStory    = "Product Story"
	HeadingCaptions = "Social Media Captions"
	HeadingImages   = "AI-Generated Lifestyle Photos"
)

// ActionKind is what activating an item does
type ActionKind int

const (
	ActionCopy ActionKind = iota
	ActionDownload
)

func (a ActionKind) String() string {
	if a == ActionDownload {
		return "download"
	}
	return "copy"
}

// Section is a heading and its ordered items
type Section struct {
	Kind    SectionKind
	Heading string
	Items   []Item
}

// Item is one copyable text or downloadable image
type Item struct {
	Action ActionKind

	// Label names the item in acknowledgements ("Title", "Caption", "Image 2")
	Label string

	// Index is the 0-based position within its section
	Index int

	Text string
	URL  string

	// FileName is the download name for images
	FileName string
}

// DownloadName returns the file name for the image at 0-based index i
func DownloadName(i int) string {
	return fmt.Sprintf("kalasetu-image-%d.png", i+1)
}

// Render maps a result to sections in display order: title, story,
// captions, images. All four are present for any result; a field the
// service left empty yields an empty text or an empty list
func Render(result *pipeline.GenerationResult) []Section {
	if result == nil {
		return nil
	}

	captions := make([]Item, len(result.Captions))
	for i, caption := range result.Captions {
		captions[i] = Item{Action: ActionCopy, Label: "Caption", Index: i, Text: caption}
	}

	images := make([]Item, len(result.ImageURLs))
	for i, url := range result.ImageURLs {
		images[i] = Item{
			Action:   ActionDownload,
			Label:    fmt.Sprintf("Image %d", i+1),
			Index:    i,
			URL:      url,
			FileName: DownloadName(i),
		}
	}

	return []Section{
		{
			Kind:    SectionTitle,
			Heading: HeadingTitle,
			Items:   []Item{{Action: ActionCopy, Label: "Title", Text: result.Title}},
		},
		{
			Kind:    SectionStory,
			Heading: HeadingStory,
			Items:   []Item{{Action: ActionCopy, Label: "Story", Text: result.Story}},
		},
		{Kind: SectionCaptions, Heading: HeadingCaptions, Items: captions},
		{Kind: SectionImages, Heading: HeadingImages, Items: images},
	}
}

// Items flattens sections into one navigable list
func Items(sections []Section) []Item {
	var items []Item
	for _, s := range sections {
		items = append(items, s.Items...)
	}
	return items
}
