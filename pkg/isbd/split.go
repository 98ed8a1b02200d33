package isbd

import (
	"errors"
	"strings"
)

// ErrNoTitleArea is returned when a citation has no title area to parse.
var ErrNoTitleArea = errors.New("citation has no title area")

// Kind distinguishes a stand-alone item from a part published inside a
// larger work.
type Kind int

const (
	// Monograph is a citation without a " // " source part.
	Monograph Kind = iota
	// Analytic is an article or chapter citation with a source part.
	Analytic
)

func (k Kind) String() string {
	if k == Analytic {
		return "analytic"
	}
	return "monograph"
}

// Citation is a normalized citation cut into ISBD areas.
type Citation struct {
	Kind Kind

	// Title is area zero of the description.
	Title string
	// Areas are the description areas after area zero.
	Areas []string

	// SourceTitle is area zero of the host item (analytic only).
	SourceTitle string
	// SourceAreas are the host item areas after area zero.
	SourceAreas []string
}

// Split cuts a normalized citation into description and source, then each
// side into areas.
func Split(normalized string) (Citation, error) {
	description, source, _ := strings.Cut(normalized, SourceDelimiter)

	var c Citation
	c.Title, c.Areas = splitAreas(description)
	if strings.TrimSpace(c.Title) == "" {
		return Citation{}, ErrNoTitleArea
	}

	if source != "" {
		c.Kind = Analytic
		c.SourceTitle, c.SourceAreas = splitAreas(source)
	}
	return c, nil
}

// FieldAreas returns every area after the two title areas, description
// first. Publication, pagination and identifier rules run over these.
func (c Citation) FieldAreas() []string {
	areas := make([]string, 0, len(c.Areas)+len(c.SourceAreas))
	areas = append(areas, c.Areas...)
	return append(areas, c.SourceAreas...)
}

// IsAnalytic reports whether the citation describes a component part.
func (c Citation) IsAnalytic() bool {
	return c.Kind == Analytic
}

func splitAreas(side string) (string, []string) {
	parts := strings.Split(side, AreaDelimiter)
	return parts[0], parts[1:]
}
