// Package irbis renders records as IRBIS text: the per-occurrence preview
// shown after a parse, and the CRLF import file the IRBIS cataloguer loads.
// It also reads import files back into records.
package irbis

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// RecordSeparator terminates every record of an import file.
const RecordSeparator = "*****"

// minImportLine is the longest rendered line that is still dropped from an
// import file as empty ("#900: " and the like).
const minImportLine = 6

const crlf = "\r\n"

// Body renders one occurrence: the bare value of a NoSubfields occurrence,
// otherwise "^<code><value>" for every subfield in write order.
func Body(occ record.Occurrence) string {
	if v, ok := occ.Get(record.NoSubfields); ok {
		return v
	}
	var b strings.Builder
	for _, code := range occ.Codes() {
		v, _ := occ.Get(code)
		b.WriteByte('^')
		b.WriteString(strings.ToLower(code))
		b.WriteString(v)
	}
	return b.String()
}

// PreviewLines renders f as "#<tag>/<occurrence>:_<body>", one line per
// occurrence.
func PreviewLines(f *record.Field) []string {
	lines := make([]string, 0, f.Count())
	for i := 1; i <= f.Count(); i++ {
		occ, _ := f.Occurrence(i)
		lines = append(lines, fmt.Sprintf("#%d/%d:_%s", f.Tag, i, Body(occ)))
	}
	return lines
}

// ImportLines renders f as "#<tag>: <body>", one line per occurrence.
func ImportLines(f *record.Field) []string {
	lines := make([]string, 0, f.Count())
	for i := 1; i <= f.Count(); i++ {
		occ, _ := f.Occurrence(i)
		lines = append(lines, fmt.Sprintf("#%d: %s", f.Tag, Body(occ)))
	}
	return lines
}

// Preview renders an entry for display: separator, the citation text and
// every field in preview form.
func Preview(e *record.Entry) string {
	var b strings.Builder
	b.WriteString(RecordSeparator + "\n\n")
	b.WriteString(e.Text + "\n\n")
	for _, f := range e.Record.Fields() {
		for _, line := range PreviewLines(f) {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// WriteImport writes entries in import form with CRLF line ends. Lines of
// six characters or fewer are omitted; each entry ends with RecordSeparator.
func WriteImport(w io.Writer, entries []*record.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		for _, f := range e.Record.Fields() {
			for _, line := range ImportLines(f) {
				if utf8.RuneCountInString(line) <= minImportLine {
					continue
				}
				if _, err := bw.WriteString(line + crlf); err != nil {
					return fmt.Errorf("writing import line: %w", err)
				}
			}
		}
		if _, err := bw.WriteString(RecordSeparator + crlf); err != nil {
			return fmt.Errorf("writing record separator: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing import file: %w", err)
	}
	return nil
}

// ImportFileName returns the default import file name for day t.
func ImportFileName(t time.Time) string {
	return "import_" + t.Format("20060102") + ".txt"
}

// ReadImport parses an import file back into records, one per
// RecordSeparator. Every "#<tag>: " line adds an occurrence to its tag.
func ReadImport(r io.Reader) ([]*record.Record, error) {
	var (
		records []*record.Record
		current = record.New()
		lineNo  int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.TrimSpace(line) == "":
			continue
		case line == RecordSeparator:
			records = append(records, current)
			current = record.New()
			continue
		}

		tag, body, err := splitImportLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		occ := current.Next(tag)
		if !strings.HasPrefix(body, "^") {
			current.SetAt(tag, occ, record.NoSubfields, body)
			continue
		}
		for _, part := range strings.Split(body[1:], "^") {
			code, size := utf8.DecodeRuneInString(part)
			if code == utf8.RuneError {
				continue
			}
			current.SetAt(tag, occ, strings.ToUpper(string(code)), part[size:])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	if current.Len() > 0 {
		records = append(records, current)
	}
	return records, nil
}

func splitImportLine(line string) (int, string, error) {
	rest, ok := strings.CutPrefix(line, "#")
	if !ok {
		return 0, "", fmt.Errorf("expected \"#<tag>: \", got %q", line)
	}
	tagText, body, ok := strings.Cut(rest, ": ")
	if !ok {
		return 0, "", fmt.Errorf("missing \": \" after tag in %q", line)
	}
	tag, err := strconv.Atoi(tagText)
	if err != nil || tag <= 0 {
		return 0, "", fmt.Errorf("invalid tag %q", tagText)
	}
	return tag, body, nil
}
