// Package extract pulls catalogue data out of ISBD areas and writes it into
// a record: the title area with its heading and statements of
// responsibility, person names with relator codes, and the publication,
// pagination, edition, numbering and identifier areas.
package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// headingPattern matches "Surname, I. I. Title" at the start of a title
// segment. The comma is optional; one or two initials are accepted.
var headingPattern = regexp.MustCompile(`^(\p{Lu}[\p{L}'-]*),? (\p{Lu}\.(?: ?\p{Lu}\.)?) (.+)$`)

// Segment prefixes inside the title area.
const (
	prefixInfo           = " : "
	prefixResponsibility = " / "
	prefixSecond         = " ; "
)

// HeadingTarget says where a heading found in a title area is written.
type HeadingTarget struct {
	Tag      int
	Surname  string
	Initials string
}

var (
	// DescriptionHeading receives the heading of the described item.
	DescriptionHeading = HeadingTarget{Tag: TagHeading, Surname: CodeSurname, Initials: CodeInitials}

	// SourceHeading receives the heading of the host item of an analytic.
	SourceHeading = HeadingTarget{Tag: TagSourceAuthors, Surname: CodeSurname, Initials: CodeInitials}
)

// Title is what a title area yields. Missing parts are empty strings.
type Title struct {
	Title                string
	Info                 string
	Responsibility       string
	SecondResponsibility string

	// Heading parts, set when the area starts with "Surname I. I.".
	Surname  string
	Initials string
}

// HasHeading reports whether a heading was detected.
func (t Title) HasHeading() bool {
	return t.Surname != ""
}

// ExtractTitle parses a title area. A detected heading is written to target
// at its next free occurrence.
func ExtractTitle(rec *record.Record, area string, target HeadingTarget) Title {
	var t Title
	segments := titleSegments(area)
	if len(segments) == 0 {
		return t
	}

	if m := headingPattern.FindStringSubmatch(segments[0]); m != nil {
		t.Surname = m[1]
		t.Initials = strings.TrimSpace(m[2])
		t.Title = m[3]

		occ := rec.Next(target.Tag)
		rec.SetAt(target.Tag, occ, target.Surname, t.Surname)
		rec.SetAt(target.Tag, occ, target.Initials, t.Initials)
	} else {
		t.Title = segments[0]
	}

	for _, segment := range segments[1:] {
		switch {
		case strings.HasPrefix(segment, prefixInfo):
			t.Info = lowerFirst(segment[len(prefixInfo):])
		case strings.HasPrefix(segment, prefixResponsibility):
			t.Responsibility = segment[len(prefixResponsibility):]
		case strings.HasPrefix(segment, prefixSecond):
			t.SecondResponsibility = segment[len(prefixSecond):]
		}
	}
	return t
}

// titleSegments cuts area before every " /", " :" or " ;". Each segment after
// the first keeps its leading space and delimiter.
func titleSegments(area string) []string {
	var segments []string
	start := 0
	for i := 0; i+1 < len(area); i++ {
		if i > start && area[i] == ' ' && strings.IndexByte("/:;", area[i+1]) >= 0 {
			segments = append(segments, area[start:i])
			start = i
		}
	}
	if start < len(area) {
		segments = append(segments, area[start:])
	}
	return segments
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
