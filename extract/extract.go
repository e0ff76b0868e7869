// Package extract converts a PDF byte stream into ordered clause-level
// text blocks for analysis.
package extract

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ClauseBlock is one ordered unit of contract text. Index values are
// contiguous, starting at 1, across the whole document; blocks are never
// mutated after extraction.
type ClauseBlock struct {
	// Index is the stable, 1-based position of the clause in the document.
	// It is the clause number shown in reports.
	Index int

	// Text is the raw clause text.
	Text string

	// Page is the 1-based page number the clause starts on.
	Page int

	// Heading is the section heading the clause opened with, if any.
	Heading string
}

// ExtractionError indicates the byte stream is not a readable PDF or has no
// extractable text layer. It is fatal to an analysis run.
type ExtractionError struct {
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// clauseMarkerPattern matches numbered clause openers at the start of a
// paragraph: "1.", "(1)", "Article 1", "제1조", "IV." and similar.
var clauseMarkerPattern = regexp.MustCompile(`^\s*(?:\d+\s*[.)]|\(\d+\)|제\s*\d+\s*조|[Aa]rticle\s+\d+|[Ss]ection\s+\d+|[IVXLC]+\.)\s*`)

// Extractor turns PDF bytes into clause blocks. Extraction is a pure
// transformation of the input bytes: identical input yields identical output.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger uses slog.Default().
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract parses the PDF and returns its clauses in reading order: pages in
// absolute order, paragraphs top-to-bottom within each page. Empty pages
// contribute no blocks. Returns *ExtractionError when the bytes are not a
// valid PDF or no text layer exists (e.g. a pure scanned image).
func (e *Extractor) Extract(data []byte) ([]ClauseBlock, error) {
	if len(data) == 0 {
		return nil, &ExtractionError{Reason: "empty input"}
	}

	reader, err := pdf.NewReader(newBytesReaderAt(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Reason: "not a valid PDF", Err: err}
	}

	var blocks []ClauseBlock
	numPages := reader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages may fail to parse; skipping a page keeps the
			// remaining ordering intact and stays deterministic.
			e.logger.Warn("Failed to extract page text", "page", pageNum, "error", err)
			continue
		}

		for _, para := range splitClauses(text) {
			heading := ""
			if m := clauseMarkerPattern.FindString(para); m != "" {
				heading = strings.TrimSpace(firstLine(para))
			}
			blocks = append(blocks, ClauseBlock{
				Index:   len(blocks) + 1,
				Text:    para,
				Page:    pageNum,
				Heading: heading,
			})
		}
	}

	if len(blocks) == 0 {
		return nil, &ExtractionError{Reason: fmt.Sprintf("no extractable text layer in %d page(s)", numPages)}
	}

	e.logger.Info("Extracted clauses from PDF", "pages", numPages, "clauses", len(blocks))
	return blocks, nil
}

// splitClauses segments page text into clause-sized paragraphs. Boundaries
// are blank lines plus numbered clause markers starting a line. The split is
// heuristic but deterministic for identical input.
func splitClauses(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var clauses []string
	var current []string

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n"))
		if joined != "" {
			clauses = append(clauses, joined)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		// A numbered marker opens a new clause even without a blank line.
		if len(current) > 0 && clauseMarkerPattern.MatchString(line) {
			flush()
		}
		current = append(current, trimmed)
	}
	flush()

	return clauses
}

// firstLine returns the first line of a paragraph.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// bytesReaderAt implements io.ReaderAt for a byte slice. The pdf library
// wants a ReaderAt plus size rather than a byte slice.
type bytesReaderAt struct {
	data []byte
}

func newBytesReaderAt(data []byte) *bytesReaderAt {
	return &bytesReaderAt{data: data}
}

func (r *bytesReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
