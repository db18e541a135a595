package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	rowsPerPage    = 25
	maxColWidth    = 60.0 // mm
	rowHeight      = 7.0  // mm
	footerHeight   = 6.0  // mm
	charWidthMM    = 1.7  // rough glyph width at the table font size
	cellCharBudget = 60   // hard cap regardless of column width
)

var fileNameSanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// numberPrinter renders numeric cells with thousands separators.
var numberPrinter = message.NewPrinter(language.English)

// RenderResult identifies the generated artifact.
type RenderResult struct {
	FileName string
	FilePath string
}

// Renderer turns a tabular result set into a paginated landscape PDF
// on disk.
type Renderer struct {
	outputDir string
}

func NewRenderer(outputDir string) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report output directory: %v", err)
	}
	return &Renderer{outputDir: outputDir}, nil
}

func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// Render writes the report PDF and returns its location. When columns
// is nil the set is inferred from the first row's keys, so rows shaped
// differently from the first render inconsistently; callers that care
// pass the query's column order explicitly. Empty input still produces
// a complete document with a "no data" body. If the write fails the
// partial file is removed and an error returned.
func (r *Renderer) Render(reportName string, columns []string, rows []map[string]interface{}, description string) (*RenderResult, error) {
	if len(columns) == 0 && len(rows) > 0 {
		columns = make([]string, 0, len(rows[0]))
		for key := range rows[0] {
			columns = append(columns, key)
		}
		sort.Strings(columns)
	}

	fileName, filePath := r.reserveFileName(reportName)

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	r.drawTitle(pdf, reportName, description)

	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	colWidth := maxColWidth
	if len(columns) > 0 {
		colWidth = usable / float64(len(columns))
		if colWidth > maxColWidth {
			colWidth = maxColWidth
		}
	}
	charBudget := int(colWidth / charWidthMM)
	if charBudget > cellCharBudget {
		charBudget = cellCharBudget
	}

	if len(rows) == 0 {
		pdf.SetFont("Arial", "I", 11)
		pdf.Ln(6)
		pdf.Cell(usable, 8, "No data available for this report.")
	} else {
		r.drawHeader(pdf, columns, colWidth, charBudget)
		for i, row := range rows {
			// Break on the fixed per-page row count, or earlier when the
			// next row would cross the page bottom (a long header block
			// shifts the table down).
			if (i > 0 && i%rowsPerPage == 0) || pdf.GetY()+rowHeight > pageHeight {
				pdf.AddPage()
				r.drawHeader(pdf, columns, colWidth, charBudget)
			}
			r.drawRow(pdf, columns, row, colWidth, charBudget)
		}
	}

	// The footer must land inside the page; a full final page pushes it
	// onto a fresh one.
	if pdf.GetY()+6+footerHeight > pageHeight {
		pdf.AddPage()
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(usable, footerHeight, fmt.Sprintf("Total records: %d", len(rows)))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write report file: %v", err)
	}

	return &RenderResult{FileName: fileName, FilePath: filePath}, nil
}

// reserveFileName builds a timestamped name for the artifact. The
// timestamp has second granularity, so a sequence counter keeps two
// executions within the same second from overwriting each other.
func (r *Renderer) reserveFileName(reportName string) (string, string) {
	base := fmt.Sprintf("%s_%s",
		sanitizeFileName(reportName),
		time.Now().Format("20060102_150405"))

	fileName := base + ".pdf"
	filePath := filepath.Join(r.outputDir, fileName)
	for seq := 2; ; seq++ {
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			break
		}
		fileName = fmt.Sprintf("%s_%d.pdf", base, seq)
		filePath = filepath.Join(r.outputDir, fileName)
	}
	return fileName, filePath
}

func (r *Renderer) drawTitle(pdf *gofpdf.Fpdf, reportName, description string) {
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, reportName)
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 6, "Generated: "+time.Now().Format("02 Jan 2006 15:04"))
	pdf.Ln(5)

	if description != "" {
		pdf.SetFont("Arial", "I", 9)
		pdf.Cell(0, 6, truncate(description, 180))
		pdf.Ln(5)
	}
	pdf.Ln(2)
}

func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf, columns []string, colWidth float64, charBudget int) {
	pdf.SetFont("Arial", "B", 8)
	pdf.SetFillColor(220, 220, 220)
	for _, col := range columns {
		pdf.CellFormat(colWidth, rowHeight, truncate(col, charBudget), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(rowHeight)
}

func (r *Renderer) drawRow(pdf *gofpdf.Fpdf, columns []string, row map[string]interface{}, colWidth float64, charBudget int) {
	pdf.SetFont("Arial", "", 8)
	for _, col := range columns {
		pdf.CellFormat(colWidth, rowHeight, formatValue(row[col], charBudget), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(rowHeight)
}

// formatValue stringifies one cell: nil becomes a dash, numbers get
// thousands separators, timestamps become short dates, everything else
// is stringified. The result is truncated to the column budget.
func formatValue(v interface{}, charBudget int) string {
	var s string
	switch val := v.(type) {
	case nil:
		s = "-"
	case time.Time:
		s = val.Format("02 Jan 2006")
	case int:
		s = numberPrinter.Sprintf("%d", val)
	case int32:
		s = numberPrinter.Sprintf("%d", val)
	case int64:
		s = numberPrinter.Sprintf("%d", val)
	case uint:
		s = numberPrinter.Sprintf("%d", val)
	case uint64:
		s = numberPrinter.Sprintf("%d", val)
	case float32:
		s = numberPrinter.Sprintf("%.2f", val)
	case float64:
		s = numberPrinter.Sprintf("%.2f", val)
	case []byte:
		s = string(val)
	default:
		s = fmt.Sprintf("%v", val)
	}
	return truncate(s, charBudget)
}

// truncate cuts on rune boundaries so multi-byte characters never
// leave invalid UTF-8 in a cell.
func truncate(s string, budget int) string {
	if budget <= 0 || utf8.RuneCountInString(s) <= budget {
		return s
	}
	return string([]rune(s)[:budget])
}

func sanitizeFileName(name string) string {
	cleaned := fileNameSanitizer.ReplaceAllString(strings.TrimSpace(name), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		cleaned = "report"
	}
	return cleaned
}
