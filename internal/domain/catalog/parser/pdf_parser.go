package parser

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/BornStar-hub/Makopo-Industrial-Price-Adjuster/internal/domain/catalog"
)

// PDFConfig tunes how glyphs on a page are grouped into a table.
// All factors are relative to the glyph's font size.
type PDFConfig struct {
	LineTolerance float64 // Max baseline drift within one line
	WordGap       float64 // Gap that inserts a space inside a cell
	CellGap       float64 // Gap that starts a new cell
	HeaderGap     float64 // Max baseline distance between a header and its first row
	RowGapFactor  float64 // Row spacing, relative to the region's first, that ends a region
	MinColumns    int     // Cells a line needs to count as a table row
	MinRows       int     // Consecutive table rows needed for a region (header included)
}

// DefaultPDFConfig returns thresholds that work for typical generated price lists
func DefaultPDFConfig() PDFConfig {
	return PDFConfig{
		LineTolerance: 0.3,
		WordGap:       0.15,
		CellGap:       1.0,
		HeaderGap:     3.0,
		RowGapFactor:  1.5,
		MinColumns:    2,
		MinRows:       2,
	}
}

// PDFParser extracts the first table on the first page of a PDF
type PDFParser struct {
	config PDFConfig
}

// NewPDFParser creates a new PDF parser instance.
func NewPDFParser(config PDFConfig) *PDFParser {
	return &PDFParser{config: config}
}

// pdfCell is a run of glyphs on one line with its horizontal extent
type pdfCell struct {
	text   string
	x0, x1 float64
}

type pdfLine struct {
	y     float64
	size  float64
	cells []pdfCell
}

// ParsePDF reads page 1 only. Its first table region becomes the catalog: the
// region's first line is the header, the remaining lines are data rows.
// Any failure to read the page or find a region is an ErrExtractionFailure.
func (p *PDFParser) ParsePDF(data []byte) (table *catalog.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = fmt.Errorf("%w: malformed PDF: %v", catalog.ErrExtractionFailure, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catalog.ErrExtractionFailure, err)
	}
	if reader.NumPage() < 1 {
		return nil, fmt.Errorf("%w: document has no pages", catalog.ErrExtractionFailure)
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, fmt.Errorf("%w: first page is unreadable", catalog.ErrExtractionFailure)
	}

	lines := p.groupLines(page.Content().Text)
	header, records, ok := p.findTable(lines)
	if !ok {
		return nil, fmt.Errorf("%w: no table found on the first page", catalog.ErrExtractionFailure)
	}

	return catalog.NewTable(header, records)
}

// groupLines clusters glyphs into lines top to bottom and splits each line into cells.
func (p *PDFParser) groupLines(glyphs []pdf.Text) []pdfLine {
	if len(glyphs) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	// PDF y grows upwards
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines []pdfLine
	var current []pdf.Text
	lineY := sorted[0].Y
	for _, g := range sorted {
		if len(current) > 0 && lineY-g.Y > p.config.LineTolerance*fontSize(g) {
			lines = append(lines, p.newLine(lineY, current))
			current = nil
			lineY = g.Y
		}
		current = append(current, g)
	}
	if len(current) > 0 {
		lines = append(lines, p.newLine(lineY, current))
	}
	return lines
}

func (p *PDFParser) newLine(y float64, glyphs []pdf.Text) pdfLine {
	line := pdfLine{y: y}
	for _, g := range glyphs {
		line.size = math.Max(line.size, fontSize(g))
	}
	line.cells = p.splitCells(glyphs)
	return line
}

// splitCells orders glyphs left to right and merges them into cells.
func (p *PDFParser) splitCells(glyphs []pdf.Text) []pdfCell {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var cells []pdfCell
	var sb strings.Builder
	var cell pdfCell
	started := false

	flush := func() {
		text := strings.TrimSpace(sb.String())
		if text != "" {
			cell.text = text
			cells = append(cells, cell)
		}
		sb.Reset()
		started = false
	}

	for _, g := range glyphs {
		size := fontSize(g)
		if started {
			gap := g.X - cell.x1
			switch {
			case gap > p.config.CellGap*size:
				flush()
			case gap > p.config.WordGap*size && !strings.HasSuffix(sb.String(), " "):
				sb.WriteString(" ")
			}
		}
		if !started {
			cell = pdfCell{x0: g.X, x1: g.X}
			started = true
		}
		sb.WriteString(g.S)
		if end := g.X + g.W; end > cell.x1 {
			cell.x1 = end
		}
	}
	flush()
	return cells
}

// findTable returns the first table on the page. Any line with at least
// MinColumns cells is a candidate header whose cells anchor the columns. The
// candidate is skipped when fewer than MinRows lines (header included) follow
// it or its rows fill fewer than MinColumns anchors.
func (p *PDFParser) findTable(lines []pdfLine) ([]string, [][]string, bool) {
	for start, line := range lines {
		if len(line.cells) < p.config.MinColumns {
			continue
		}
		records, filled := p.collectRows(lines, start)
		if len(records)+1 < p.config.MinRows || filled < p.config.MinColumns {
			continue
		}

		header := make([]string, len(line.cells))
		for i, c := range line.cells {
			header[i] = c.text
		}
		return header, records, true
	}
	return nil, nil, false
}

// collectRows aligns the lines below lines[start] to its cells. The region
// ends at a line with too few cells, at a vertical gap wider than the region's
// row spacing allows, or at a line whose cells do not fit the anchors. It
// returns the rows and the number of distinct anchors they fill.
func (p *PDFParser) collectRows(lines []pdfLine, start int) ([][]string, int) {
	anchors := lines[start].cells
	filled := make(map[int]bool, len(anchors))
	var records [][]string
	spacing := 0.0

	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if len(line.cells) < p.config.MinColumns {
			break
		}

		gap := lines[i-1].y - line.y
		if spacing == 0 {
			if gap > p.config.HeaderGap*lines[start].size {
				break
			}
			spacing = gap
		} else if gap > p.config.RowGapFactor*spacing {
			break
		}

		record, ok := alignLine(anchors, line)
		if !ok {
			break
		}
		for col, v := range record {
			if v != "" {
				filled[col] = true
			}
		}
		records = append(records, record)
	}
	return records, len(filled)
}

// alignLine places every cell in the anchor column it overlaps most, or the
// nearest one if it overlaps none. Two cells landing in the same column mean
// the line does not follow the anchors.
func alignLine(anchors []pdfCell, line pdfLine) ([]string, bool) {
	record := make([]string, len(anchors))
	for _, c := range line.cells {
		col := nearestColumn(anchors, c)
		if record[col] != "" {
			return nil, false
		}
		record[col] = c.text
	}
	return record, true
}

func nearestColumn(anchors []pdfCell, c pdfCell) int {
	best, bestOverlap := -1, 0.0
	for i, a := range anchors {
		overlap := math.Min(a.x1, c.x1) - math.Max(a.x0, c.x0)
		if overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	if best >= 0 {
		return best
	}

	center := (c.x0 + c.x1) / 2
	bestDist := math.Inf(1)
	for i, a := range anchors {
		if d := math.Abs((a.x0+a.x1)/2 - center); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func fontSize(g pdf.Text) float64 {
	if g.FontSize > 0 {
		return g.FontSize
	}
	return 10
}
