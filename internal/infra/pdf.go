package infra

// pdf.go: shift report PDF using go-pdf/fpdf.
// An 80mm roll-width document with:
//   - store header and receipt number
//   - key/value header block (worker, date, shift hours)
//   - titled sections of label/value rows, each with an optional subtotal
//   - free text block (receipt text forwarded by older frontends)
//   - footer lines

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// ReportRow is one label/value line.
type ReportRow struct {
	Label string
	Value string
}

// ReportSection groups rows under a title. Note is printed in italics under
// the title; Subtotal, when set, closes the section.
type ReportSection struct {
	Title    string
	Note     string
	Rows     []ReportRow
	Subtotal *ReportRow
}

// ReportDocument is everything the renderer prints, already formatted.
type ReportDocument struct {
	Title         string
	StoreName     string
	ReceiptNumber string
	Header        []ReportRow
	Sections      []ReportSection
	Text          string
	Footer        []string
}

const (
	reportWidthMM = 80
	reportMargin  = 5
)

// RenderReportPDF renders doc and returns the PDF bytes.
func RenderReportPDF(doc ReportDocument) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: reportWidthMM, Ht: 260},
	})
	pdf.SetMargins(reportMargin, reportMargin, reportMargin)
	pdf.SetAutoPageBreak(true, reportMargin)
	pdf.AddPage()

	// Core fonts are cp1252; the translator keeps Portuguese accents.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	contentW := float64(reportWidthMM - 2*reportMargin)
	labelW := contentW * 0.62
	valueW := contentW - labelW

	rule := func() {
		pdf.Ln(1)
		pdf.Line(reportMargin, pdf.GetY(), reportWidthMM-reportMargin, pdf.GetY())
		pdf.Ln(2)
	}
	row := func(r ReportRow, style string) {
		pdf.SetFont("Helvetica", style, 8)
		pdf.CellFormat(labelW, 5, tr(r.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 5, tr(r.Value), "", 1, "R", false, 0, "")
	}

	// ── Header ────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr(doc.StoreName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(doc.Title), "", 1, "C", false, 0, "")
	if doc.ReceiptNumber != "" {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(contentW, 5, tr("Nº "+doc.ReceiptNumber), "", 1, "C", false, 0, "")
	}
	rule()

	for _, h := range doc.Header {
		row(h, "")
	}

	// ── Sections ──────────────────────────────────────────────────────────────
	for _, sec := range doc.Sections {
		rule()
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW, 6, tr(sec.Title), "", 1, "L", false, 0, "")
		if sec.Note != "" {
			pdf.SetFont("Helvetica", "I", 7)
			pdf.MultiCell(contentW, 4, tr(sec.Note), "", "L", false)
		}
		for _, r := range sec.Rows {
			row(r, "")
		}
		if sec.Subtotal != nil {
			row(*sec.Subtotal, "B")
		}
	}

	// ── Free text ─────────────────────────────────────────────────────────────
	if doc.Text != "" {
		rule()
		pdf.SetFont("Courier", "", 7)
		pdf.MultiCell(contentW, 3.5, tr(doc.Text), "", "L", false)
	}

	// ── Footer ────────────────────────────────────────────────────────────────
	if len(doc.Footer) > 0 {
		rule()
		pdf.SetFont("Helvetica", "I", 7)
		for _, line := range doc.Footer {
			pdf.CellFormat(contentW, 4, tr(line), "", 1, "C", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// SavePDF writes data to storagePath/fileName, creating the directory if
// needed, and returns the file path.
func SavePDF(storagePath, fileName string, data []byte) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(storagePath, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}
