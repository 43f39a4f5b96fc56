package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractionVariant identifies the source document type of an extraction.
type ExtractionVariant string

// Available extraction variants.
const (
	VariantDocument    ExtractionVariant = "document"
	VariantImage       ExtractionVariant = "image"
	VariantSpreadsheet ExtractionVariant = "spreadsheet"
)

// Pseudo-section headings, in the order they are appended after real sections.
const (
	PseudoSummary      = "Summary"
	PseudoOCRText      = "OCR Text"
	PseudoObservations = "Observations"
	PseudoComponents   = "Components"
	PseudoFileMetadata = "File Metadata"
)

// Extraction is a per-file extraction record.
// It is one of *DocumentExtraction, *ImageExtraction or *SpreadsheetExtraction.
type Extraction interface {
	// Variant returns the source document type.
	Variant() ExtractionVariant

	// Header returns the fields shared by every variant.
	Header() ExtractionHeader

	// ContentItems flattens the record into addressable content.
	// Retrieval and resolution both call this, so it must be deterministic.
	ContentItems() ContentItems
}

// ExtractionHeader holds the identifying text common to all variants.
type ExtractionHeader struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
}

// DocumentExtraction is extracted from a text document such as a PDF or DOCX.
type DocumentExtraction struct {
	ExtractionHeader
	Sections []Section `json:"sections,omitempty"`
	Tables   []Table   `json:"tables,omitempty"`
	Charts   []Chart   `json:"charts,omitempty"`
	Images   []Image   `json:"images,omitempty"`
	Readings []Reading `json:"readings,omitempty"`
}

// Variant implements Extraction.
func (d *DocumentExtraction) Variant() ExtractionVariant { return VariantDocument }

// Header implements Extraction.
func (d *DocumentExtraction) Header() ExtractionHeader { return d.ExtractionHeader }

// ContentItems implements Extraction.
func (d *DocumentExtraction) ContentItems() ContentItems {
	return ContentItems{
		Sections: cloneSections(d.Sections),
		Tables:   d.Tables,
		Charts:   d.Charts,
		Images:   d.Images,
		Readings: d.Readings,
	}
}

// ImageExtraction is extracted from a photograph, scan or drawing.
type ImageExtraction struct {
	ExtractionHeader
	ImageType    string    `json:"image_type"`
	OCRText      string    `json:"ocr_text,omitempty"`
	Observations []string  `json:"observations,omitempty"`
	Components   []string  `json:"components,omitempty"`
	Sections     []Section `json:"sections,omitempty"`
	Readings     []Reading `json:"readings,omitempty"`
}

// Variant implements Extraction.
func (e *ImageExtraction) Variant() ExtractionVariant { return VariantImage }

// Header implements Extraction.
func (e *ImageExtraction) Header() ExtractionHeader { return e.ExtractionHeader }

// ContentItems implements Extraction.
// Pseudo-sections follow real sections: summary, OCR text, observations, components.
func (e *ImageExtraction) ContentItems() ContentItems {
	sections := cloneSections(e.Sections)
	sections = appendPseudo(sections, PseudoSummary, e.Summary)
	sections = appendPseudo(sections, PseudoOCRText, e.OCRText)
	sections = appendPseudo(sections, PseudoObservations, bulletList(e.Observations))
	sections = appendPseudo(sections, PseudoComponents, bulletList(e.Components))
	return ContentItems{
		Sections: sections,
		Readings: e.Readings,
	}
}

// SpreadsheetMetadata describes the shape of a spreadsheet file.
type SpreadsheetMetadata struct {
	SheetCount  int   `json:"sheet_count"`
	RowCount    int   `json:"row_count"`
	ColumnCount int   `json:"column_count"`
	FileSize    int64 `json:"file_size"`
}

// String renders the metadata as plain text.
func (m SpreadsheetMetadata) String() string {
	return fmt.Sprintf("Sheets: %d\nRows: %d\nColumns: %d\nSize: %d bytes",
		m.SheetCount, m.RowCount, m.ColumnCount, m.FileSize)
}

// SpreadsheetExtraction is extracted from a workbook or CSV file.
type SpreadsheetExtraction struct {
	ExtractionHeader
	SpreadsheetType string               `json:"spreadsheet_type"`
	Observations    []string             `json:"observations,omitempty"`
	FileMetadata    *SpreadsheetMetadata `json:"file_metadata,omitempty"`
	Sections        []Section            `json:"sections,omitempty"`
	Tables          []Table              `json:"tables,omitempty"`
	Charts          []Chart              `json:"charts,omitempty"`
}

// Variant implements Extraction.
func (e *SpreadsheetExtraction) Variant() ExtractionVariant { return VariantSpreadsheet }

// Header implements Extraction.
func (e *SpreadsheetExtraction) Header() ExtractionHeader { return e.ExtractionHeader }

// ContentItems implements Extraction.
// Pseudo-sections follow real sections: summary, observations, file metadata.
func (e *SpreadsheetExtraction) ContentItems() ContentItems {
	sections := cloneSections(e.Sections)
	sections = appendPseudo(sections, PseudoSummary, e.Summary)
	sections = appendPseudo(sections, PseudoObservations, bulletList(e.Observations))
	if e.FileMetadata != nil {
		sections = appendPseudo(sections, PseudoFileMetadata, e.FileMetadata.String())
	}
	return ContentItems{
		Sections: sections,
		Tables:   e.Tables,
		Charts:   e.Charts,
	}
}

// ParseExtraction decodes a stored extraction blob into its variant.
// The variant is chosen by the presence of "image_type" or "spreadsheet_type".
func ParseExtraction(blob []byte) (Extraction, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(blob, &keys); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtraction, err)
	}
	if keys == nil {
		return nil, fmt.Errorf("%w: empty record", ErrInvalidExtraction)
	}

	var ext Extraction
	switch {
	case hasKey(keys, "image_type"):
		ext = &ImageExtraction{}
	case hasKey(keys, "spreadsheet_type"):
		ext = &SpreadsheetExtraction{}
	default:
		ext = &DocumentExtraction{}
	}

	if err := json.Unmarshal(blob, ext); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtraction, err)
	}
	return ext, nil
}

func hasKey(m map[string]json.RawMessage, key string) bool {
	v, ok := m[key]
	return ok && string(v) != "null"
}

func cloneSections(in []Section) []Section {
	out := make([]Section, len(in), len(in)+5)
	copy(out, in)
	return out
}

func appendPseudo(sections []Section, heading, text string) []Section {
	if strings.TrimSpace(text) == "" {
		return sections
	}
	return append(sections, Section{Heading: heading, Text: text, Pseudo: true})
}

func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	return strings.Join(lines, "\n")
}
