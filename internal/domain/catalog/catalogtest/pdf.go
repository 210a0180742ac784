package catalogtest

import (
	"bytes"
	"fmt"
	"strings"
)

// PDF layout used by the fixture writer
const (
	pdfFontSize   = 12
	pdfLeft       = 72
	pdfTop        = 720
	pdfLineHeight = 20
	pdfColumnStep = 150
	pdfGlyphWidth = 600 // 1/1000 text space units
)

// Page is one PDF page: each line is a list of cells laid out in fixed columns.
// A line with a single cell is plain text.
type Page [][]string

// PDF writes a minimal PDF 1.4 document with one Helvetica font and the given
// pages. Cell i of a line is drawn at x = 72 + 150*i.
func PDF(pages ...Page) []byte {
	var buf bytes.Buffer
	var offsets []int

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1 catalog, 2 pages, 3 font, then page/content pairs
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))

	widths := make([]string, 95)
	for i := range widths {
		widths[i] = fmt.Sprint(pdfGlyphWidth)
	}
	obj(fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " ")))

	for i, page := range pages {
		content := pageContent(page)
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func pageContent(page Page) string {
	var sb strings.Builder
	for li, line := range page {
		y := pdfTop - li*pdfLineHeight
		for ci, cell := range line {
			if cell == "" {
				continue
			}
			x := pdfLeft + ci*pdfColumnStep
			fmt.Fprintf(&sb, "BT /F1 %d Tf %d %d Td (%s) Tj ET\n", pdfFontSize, x, y, escapePDFString(cell))
		}
	}
	return sb.String()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
