package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ContentType identifies a kind of addressable content inside an extraction.
type ContentType string

// Available content types.
const (
	ContentSection ContentType = "section"
	ContentTable   ContentType = "table"
	ContentChart   ContentType = "chart"
	ContentImage   ContentType = "image"
	ContentReading ContentType = "reading"
)

// AllContentTypes returns every content type in flattening order.
func AllContentTypes() []ContentType {
	return []ContentType{ContentSection, ContentTable, ContentChart, ContentImage, ContentReading}
}

// IsValid returns true if the content type is recognised.
func (t ContentType) IsValid() bool {
	switch t {
	case ContentSection, ContentTable, ContentChart, ContentImage, ContentReading:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t ContentType) String() string {
	return string(t)
}

// Section is a headed block of text.
type Section struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`

	// Pseudo marks sections synthesised from image or spreadsheet fields.
	Pseudo bool `json:"pseudo,omitempty"`
}

// Table is a titled grid with a header row.
type Table struct {
	Title   string   `json:"title"`
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Chart is a chart description with its structured data.
type Chart struct {
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Insight string          `json:"insight"`
}

// Image is an embedded figure described by the extractor.
type Image struct {
	Caption     string `json:"caption"`
	Description string `json:"description"`
}

// Reading is a single measured parameter.
type Reading struct {
	Parameter string     `json:"parameter"`
	Value     FlexString `json:"value"`
	Unit      string     `json:"unit"`
}

// FlexString accepts JSON strings, numbers and booleans as text.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// ContentItems is the flattened, addressable content of one extraction.
// Each type is addressed independently by its position in the slice.
type ContentItems struct {
	Sections []Section
	Tables   []Table
	Charts   []Chart
	Images   []Image
	Readings []Reading
}

// Len returns the number of items of the given type.
func (c ContentItems) Len(t ContentType) int {
	switch t {
	case ContentSection:
		return len(c.Sections)
	case ContentTable:
		return len(c.Tables)
	case ContentChart:
		return len(c.Charts)
	case ContentImage:
		return len(c.Images)
	case ContentReading:
		return len(c.Readings)
	default:
		return 0
	}
}

// Count returns the total number of addressable items.
func (c ContentItems) Count() int {
	n := 0
	for _, t := range AllContentTypes() {
		n += c.Len(t)
	}
	return n
}

// Lookup dereferences a (type, index) address.
// It reports false when the address is out of range.
func (c ContentItems) Lookup(t ContentType, index int) (ContentItem, bool) {
	if index < 0 || index >= c.Len(t) {
		return ContentItem{}, false
	}
	item := ContentItem{Type: t, Index: index}
	switch t {
	case ContentSection:
		item.Section = &c.Sections[index]
	case ContentTable:
		item.Table = &c.Tables[index]
	case ContentChart:
		item.Chart = &c.Charts[index]
	case ContentImage:
		item.Image = &c.Images[index]
	case ContentReading:
		item.Reading = &c.Readings[index]
	}
	return item, true
}

// Items returns every addressable item, grouped by type in flattening order.
func (c ContentItems) Items() []ContentItem {
	items := make([]ContentItem, 0, c.Count())
	for _, t := range AllContentTypes() {
		for i := 0; i < c.Len(t); i++ {
			item, _ := c.Lookup(t, i)
			items = append(items, item)
		}
	}
	return items
}

// ContentItem is one addressed piece of content. Exactly one of the
// typed fields is set, matching Type.
type ContentItem struct {
	Type    ContentType `json:"type"`
	Index   int         `json:"index"`
	Section *Section    `json:"section,omitempty"`
	Table   *Table      `json:"table,omitempty"`
	Chart   *Chart      `json:"chart,omitempty"`
	Image   *Image      `json:"image,omitempty"`
	Reading *Reading    `json:"reading,omitempty"`
}

// Label returns a short human-readable name for the item.
func (i ContentItem) Label() string {
	switch {
	case i.Section != nil:
		return i.Section.Heading
	case i.Table != nil:
		return i.Table.Title
	case i.Chart != nil:
		return i.Chart.Title
	case i.Image != nil:
		return i.Image.Caption
	case i.Reading != nil:
		return i.Reading.Parameter
	default:
		return ""
	}
}

// Text renders the item as plain text.
func (i ContentItem) Text() string {
	switch {
	case i.Section != nil:
		return i.Section.Text
	case i.Table != nil:
		return renderTable(i.Table)
	case i.Chart != nil:
		return renderChart(i.Chart)
	case i.Image != nil:
		return i.Image.Description
	case i.Reading != nil:
		return strings.TrimSpace(fmt.Sprintf("%s: %s %s", i.Reading.Parameter, i.Reading.Value, i.Reading.Unit))
	default:
		return ""
	}
}

func renderTable(t *Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Headers, " | "))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = formatCell(cell)
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cells, " | "))
	}
	return b.String()
}

func renderChart(c *Chart) string {
	parts := make([]string, 0, 3)
	if c.Type != "" {
		parts = append(parts, "Type: "+c.Type)
	}
	if c.Insight != "" {
		parts = append(parts, c.Insight)
	}
	if len(c.Data) > 0 {
		parts = append(parts, "Data: "+string(c.Data))
	}
	return strings.Join(parts, "\n")
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
