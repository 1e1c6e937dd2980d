package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/Shiraishi0303/todo-claude-code/internal/model"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
)

// ErrPDFEncoding is returned when text cannot be drawn with the built-in PDF
// font, which only covers cp1252.
var ErrPDFEncoding = errors.New("text not representable in the built-in pdf font")

const pdfFontFamily = "body"

type Option func(*Exporter)

// WithFont sets a TrueType font file used for PDF text. Without it the PDF is
// drawn with core Arial and English labels.
func WithFont(path string) Option {
	return func(e *Exporter) {
		e.fontPath = path
	}
}

// WithLabels sets the labels used in PDFs drawn with a font from WithFont.
func WithLabels(labels model.Labels) Option {
	return func(e *Exporter) {
		e.labels = labels
	}
}

type Exporter struct {
	isOverdue func(model.Date) bool
	fontPath  string
	labels    model.Labels
}

func NewExporter(isOverdue func(model.Date) bool, opts ...Option) *Exporter {
	e := &Exporter{
		isOverdue: isOverdue,
		labels:    model.NewLabels("en"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FormatFromPath derives the export format from the file extension.
func FormatFromPath(path string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch format {
	case FormatJSON, FormatCSV, FormatPDF:
		return format, nil
	default:
		return "", fmt.Errorf("unknown export format %q, use .json, .csv or .pdf", filepath.Ext(path))
	}
}

func (e *Exporter) WriteFile(path string, tasks []model.Task) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := e.Export(tasks, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) Export(tasks []model.Task, format string) ([]byte, error) {
	if tasks == nil {
		tasks = []model.Task{}
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return json.MarshalIndent(tasks, "", "  ")
	case FormatCSV:
		return e.csv(tasks)
	case FormatPDF:
		return e.pdf(tasks)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func (e *Exporter) overdue(t model.Task) bool {
	return !t.Completed && e.isOverdue(t.Deadline)
}

func (e *Exporter) csv(tasks []model.Task) ([]byte, error) {
	var b bytes.Buffer
	if err := e.writeCSV(&b, tasks); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (e *Exporter) writeCSV(out io.Writer, tasks []model.Task) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "title", "priority", "deadline", "completed", "overdue", "created_at"}); err != nil {
		return fmt.Errorf("could not write csv: %w", err)
	}
	for _, t := range tasks {
		err := w.Write([]string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			string(t.Priority),
			t.Deadline.String(),
			strconv.FormatBool(t.Completed),
			strconv.FormatBool(e.overdue(t)),
			t.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		})
		if err != nil {
			return fmt.Errorf("could not write csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("could not write csv: %w", err)
	}
	return nil
}

// pdfWriter draws text either with a UTF-8 TrueType font or with core Arial,
// in which case every string must encode to cp1252.
type pdfWriter struct {
	pdf     *gofpdf.Fpdf
	utf8    bool
	encoder func(string) (string, error)
}

func (e *Exporter) newPDFWriter() (*pdfWriter, model.Labels, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Tasks", true)

	if e.fontPath == "" {
		enc := charmap.Windows1252.NewEncoder()
		return &pdfWriter{pdf: pdf, encoder: enc.String}, model.NewLabels("en"), nil
	}

	font, err := os.ReadFile(e.fontPath)
	if err != nil {
		return nil, model.Labels{}, fmt.Errorf("could not read pdf font: %w", err)
	}
	pdf.AddUTF8FontFromBytes(pdfFontFamily, "", font)
	if err := pdf.Error(); err != nil {
		return nil, model.Labels{}, fmt.Errorf("could not load pdf font %s: %w", e.fontPath, err)
	}
	return &pdfWriter{pdf: pdf, utf8: true}, e.labels, nil
}

func (w *pdfWriter) setFont(style string, size float64) {
	if w.utf8 {
		w.pdf.SetFont(pdfFontFamily, "", size)
		return
	}
	w.pdf.SetFont("Arial", style, size)
}

func (w *pdfWriter) text(s string) (string, error) {
	if w.utf8 {
		return s, nil
	}
	out, err := w.encoder(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrPDFEncoding, s)
	}
	return out, nil
}

func (e *Exporter) pdf(tasks []model.Task) ([]byte, error) {
	w, labels, err := e.newPDFWriter()
	if err != nil {
		return nil, err
	}
	pdf := w.pdf

	pdf.AddPage()
	w.setFont("B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(12)
	w.setFont("", 10)

	if len(tasks) == 0 {
		line, err := w.text(labels.Empty(model.FilterAll))
		if err != nil {
			return nil, err
		}
		pdf.MultiCell(0, 6, line, "0", "L", false)
	}

	for _, t := range tasks {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s (%s)", box, t.Title, labels.Priority(t.Priority))
		if !t.Deadline.IsZero() {
			line += " due " + t.Deadline.Display()
		}
		if e.overdue(t) {
			line += " (" + labels.Overdue() + ")"
			pdf.SetTextColor(220, 53, 69)
		} else {
			pdf.SetTextColor(0, 0, 0)
		}
		encoded, err := w.text(line)
		if err != nil {
			return nil, err
		}
		pdf.MultiCell(0, 6, encoded, "0", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("could not render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
