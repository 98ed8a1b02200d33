// Package citation turns ISBD citations into catalogue entries: a single
// citation at a time, or a file of one citation per line where every line is
// parsed in isolation.
package citation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/transform"

	"github.com/olgyan/IrbisTextFileMaker/internal/logging"
	"github.com/olgyan/IrbisTextFileMaker/pkg/extract"
	"github.com/olgyan/IrbisTextFileMaker/pkg/isbd"
	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// Record type codes written to 900^b.
const (
	TypeMonograph        = "05"
	TypeAnalyticWithYear = "08"
	TypeAnalytic         = "09"
)

// conferenceMarker in the source title information marks conference
// proceedings (900^c 18f).
const (
	conferenceMarker = "конференц"
	conferenceGenre  = "18f"
)

// Worksheet names written to 920.
const (
	WorksheetAnalytic  = "ASP"
	WorksheetMonograph = "PAZK"
)

// Fixed record tags written by the parser itself.
const (
	tagRecordType = extract.TagRecordType
	tagAdmin      = extract.TagAdmin
	tagWorksheet  = extract.TagWorksheet
)

// maxLineSize bounds one line of ParseLines input.
const maxLineSize = 1 << 20

// Admin holds the administrative codes written to field 907.
type Admin struct {
	Origin   string
	Operator string
}

// DefaultAdmin returns the codes used when none are configured.
func DefaultAdmin() Admin {
	return Admin{Origin: "ПК", Operator: "itfmaker"}
}

// Result is a successfully parsed citation.
type Result struct {
	Entry *record.Entry
	Kind  isbd.Kind

	// LatinNames lists person names written without Cyrillic letters.
	LatinNames []string
}

// Option configures a Parser.
type Option func(*Parser)

// WithCodes replaces the built-in role and genre tables.
func WithCodes(codes *extract.Codes) Option {
	return func(p *Parser) {
		if codes != nil {
			p.codes = codes
		}
	}
}

// WithAdmin sets the origin and operator codes.
func WithAdmin(admin Admin) Option {
	return func(p *Parser) {
		p.admin = admin
	}
}

// WithClock sets the time source used for 907^a and entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEntryHook registers fn to be called for every entry ParseLines adds
// to a batch.
func WithEntryHook(fn func(*record.Entry) error) Option {
	return func(p *Parser) {
		p.onEntry = fn
	}
}

// Parser converts citations into entries. A Parser holds no per-citation
// state; each call builds its own record.
type Parser struct {
	codes   *extract.Codes
	areas   *extract.AreaExtractor
	admin   Admin
	now     func() time.Time
	logger  *slog.Logger
	onEntry func(*record.Entry) error
}

// NewParser creates a parser with the built-in tables.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		codes:  extract.DefaultCodes(),
		areas:  extract.NewAreaExtractor(),
		admin:  DefaultAdmin(),
		now:    time.Now,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts one citation. It returns ErrNothingToParse when the
// citation has no title area and a *FailureError when parsing faults.
func (p *Parser) Parse(text string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &FailureError{Text: text, Value: r}
		}
	}()
	return p.parse(text)
}

func (p *Parser) parse(text string) (*Result, error) {
	c, err := isbd.Split(isbd.Normalize(text))
	if err != nil {
		if errors.Is(err, isbd.ErrNoTitleArea) {
			return nil, fmt.Errorf("%w: %w", ErrNothingToParse, err)
		}
		return nil, fmt.Errorf("splitting citation: %w", err)
	}

	rec := record.New()
	latin := p.describe(rec, c)
	if c.IsAnalytic() {
		latin = append(latin, p.source(rec, c)...)
	}
	dated := p.applyAreas(rec, c)
	now := p.now()
	p.fixedFields(rec, c.Kind, dated, now)

	entry := record.NewEntry(text, rec, now)
	p.logger.Debug("parsed citation",
		"id", entry.ID,
		"kind", c.Kind.String(),
		"fields", rec.Len(),
	)
	return &Result{Entry: entry, Kind: c.Kind, LatinNames: latin}, nil
}

// describe writes the title area of the described item: heading, field 200
// and the persons of both statements of responsibility.
func (p *Parser) describe(rec *record.Record, c isbd.Citation) []string {
	title := extract.ExtractTitle(rec, c.Title, extract.DescriptionHeading)
	rec.SetAt(extract.TagTitle, 1, "A", title.Title)
	rec.SetAt(extract.TagTitle, 1, "E", title.Info)
	rec.SetAt(extract.TagTitle, 1, "F", title.Responsibility)
	rec.SetAt(extract.TagTitle, 1, "G", title.SecondResponsibility)

	latin := p.codes.ExtractAuthors(rec, extract.TagAuthors, title.Responsibility)
	extract.DropHeadingDuplicate(rec)
	latin = append(latin, p.codes.ExtractAuthors(rec, extract.TagOtherAuthors, title.SecondResponsibility)...)

	if !c.IsAnalytic() {
		if genre, ok := p.codes.GenreCode(title.Info); ok {
			rec.SetAt(tagRecordType, 1, "C", genre)
		}
	}
	return latin
}

// source writes the title area of the host item of an analytic citation.
func (p *Parser) source(rec *record.Record, c isbd.Citation) []string {
	title := extract.ExtractTitle(rec, c.SourceTitle, extract.SourceHeading)

	latin := p.codes.ExtractAuthors(rec, extract.TagSourceAuthors, title.Responsibility)
	latin = append(latin, p.codes.ExtractAuthors(rec, extract.TagSourceAuthors, title.SecondResponsibility)...)

	rec.SetAt(extract.TagSource, 1, "C", title.Title)
	rec.SetAt(extract.TagSourceTitle, 1, "E", title.Info)
	if strings.Contains(title.Info, conferenceMarker) {
		rec.SetAt(tagRecordType, 1, "C", conferenceGenre)
	}
	if title.Responsibility != "" {
		statement := title.Responsibility
		if title.SecondResponsibility != "" {
			statement += " ; " + title.SecondResponsibility
		}
		rec.SetAt(extract.TagSourceTitle, 1, "F", statement)
	}
	return latin
}

// applyAreas runs the area rules on every field area and reports whether
// the date-only rule supplied the year.
func (p *Parser) applyAreas(rec *record.Record, c isbd.Citation) bool {
	areas := c.FieldAreas()
	ctx := extract.AreaContext{
		Kind:          c.Kind,
		PublisherYear: p.areas.HasPublisherYear(areas, c.Kind),
	}
	var dated bool
	for _, area := range areas {
		if p.areas.Apply(rec, area, ctx).Has(extract.RuleDate) {
			dated = true
		}
	}
	return dated
}

func (p *Parser) fixedFields(rec *record.Record, kind isbd.Kind, dated bool, now time.Time) {
	recordType, worksheet := TypeMonograph, WorksheetMonograph
	if kind == isbd.Analytic {
		recordType, worksheet = TypeAnalytic, WorksheetAnalytic
		if dated {
			recordType = TypeAnalyticWithYear
		}
	}
	rec.SetAt(tagRecordType, 1, "B", recordType)
	rec.SetAt(tagWorksheet, 1, record.NoSubfields, worksheet)

	rec.SetAt(tagAdmin, 1, "C", p.admin.Origin)
	rec.SetAt(tagAdmin, 1, "A", now.Format("20060102"))
	rec.SetAt(tagAdmin, 1, "B", p.admin.Operator)
}

// BatchReport summarises a ParseLines run.
type BatchReport struct {
	Parsed     int
	Skipped    int
	Failures   []*LineError
	LatinNames []string
}

// ParseLines parses every non-blank line of r and appends the entries to
// batch. Undecodable bytes are dropped. A line that fails, including one
// longer than maxLineSize bytes, is recorded in the report and never affects
// other lines. The returned error is set only when reading r fails; entries
// parsed before that stay in batch.
func (p *Parser) ParseLines(r io.Reader, batch *record.Batch) (BatchReport, error) {
	var report BatchReport

	reader := bufio.NewReader(transform.NewReader(r, dropIllFormed{}))

	lineNo := 0
	for {
		line, err := readLine(reader)
		if err == io.EOF {
			break
		}
		lineNo++
		if errors.Is(err, ErrLineTooLong) {
			p.logger.Warn("citation not parsed", "line", lineNo, "error", err)
			report.Failures = append(report.Failures, &LineError{Line: lineNo, Err: err})
			continue
		}
		if err != nil {
			return report, fmt.Errorf("reading citations at line %d: %w", lineNo, err)
		}
		if strings.TrimSpace(line) == "" {
			report.Skipped++
			continue
		}

		res, err := p.Parse(line)
		if err != nil {
			p.logger.Warn("citation not parsed", "line", lineNo, "error", err)
			report.Failures = append(report.Failures, &LineError{Line: lineNo, Text: line, Err: err})
			continue
		}

		batch.Append(res.Entry)
		report.Parsed++
		report.LatinNames = append(report.LatinNames, res.LatinNames...)

		if p.onEntry != nil {
			if err := p.onEntry(res.Entry); err != nil {
				p.logger.Warn("entry hook failed", "line", lineNo, "error", err)
				report.Failures = append(report.Failures, &LineError{
					Line: lineNo,
					Text: line,
					Err:  fmt.Errorf("storing entry: %w", err),
				})
			}
		}
	}
	return report, nil
}

// readLine returns the next line without its LF or CRLF terminator. A line
// over maxLineSize bytes is consumed up to its terminator and reported as
// ErrLineTooLong. io.EOF is returned only when no line is left.
func readLine(r *bufio.Reader) (string, error) {
	var (
		buf     []byte
		read    int
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize+2 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && err != io.EOF {
			return "", err
		}
		if err == io.EOF && read == 0 {
			return "", io.EOF
		}
		if tooLong {
			return "", ErrLineTooLong
		}
		line := strings.TrimSuffix(string(buf), "\n")
		return strings.TrimSuffix(line, "\r"), nil
	}
}

// dropIllFormed removes ill-formed UTF-8 byte sequences from a stream and
// passes every well-formed rune through, U+FFFD included.
type dropIllFormed struct{ transform.NopResetter }

func (dropIllFormed) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst == len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}
