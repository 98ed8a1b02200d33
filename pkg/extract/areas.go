package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/olgyan/IrbisTextFileMaker/pkg/isbd"
	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// Placeholders written when the publication area omits a part.
const (
	NoPlace     = "б. м."
	NoPublisher = "б. и."
	NoYear      = "б. г."
)

// Fixed values of the EDN link (field 951) and DOI (field 19) rules.
const (
	ednLabel    = "Ссылка на публикацию"
	ednURL      = "https://elibrary.ru/item.asp?edn="
	ednLinkType = "05"
	doiLabel    = "6 DOI"
)

// Rule identifies one area rule.
type Rule uint16

const (
	RulePublisher Rule = 1 << iota
	RuleDate
	RulePages
	RuleEdition
	RuleIssue
	RuleEDN
	RuleISBN
	RuleDOI
)

// Matches is the set of rules that fired on an area.
type Matches Rule

// Has reports whether r fired.
func (m Matches) Has(r Rule) bool {
	return Rule(m)&r != 0
}

// AreaContext carries the per-citation facts the rules depend on.
type AreaContext struct {
	Kind isbd.Kind

	// PublisherYear is true when some area of the citation matches the
	// publisher rule. The date-only rule is skipped in that case.
	PublisherYear bool
}

// publisherTarget is the tag and place/publisher/year codes for one kind.
type publisherTarget struct {
	Tag                    int
	Place, Publisher, Year string
}

var publisherTargets = map[isbd.Kind]publisherTarget{
	isbd.Monograph: {Tag: TagPublication, Place: "A", Publisher: "C", Year: "D"},
	isbd.Analytic:  {Tag: TagSource, Place: "D", Publisher: "G", Year: "J"},
}

// issueCodes receive volume, issue and part numbering in the order found.
var issueCodes = []string{"V", "I", "L"}

// PageRule extracts pagination from an area. The two capture groups of
// pattern are written to Codes[0] and Codes[1] of Tag.
type PageRule struct {
	Name  string
	Tag   int
	Codes [2]string

	pattern *regexp.Regexp
}

var (
	// MonographPages matches "200 с." and writes the extent to 215^a and
	// the unit to 215^1.
	MonographPages = PageRule{
		Name:    "monograph pages",
		Tag:     TagPhysical,
		Codes:   [2]string{"A", "1"},
		pattern: regexp.MustCompile(`^(\d+) ([сcpSsл]\.?)`),
	}

	// AnalyticPages matches "С. 5-10" and writes the label to 463^1 and the
	// range to 463^s.
	AnalyticPages = PageRule{
		Name:    "analytic pages",
		Tag:     TagSource,
		Codes:   [2]string{"1", "S"},
		pattern: regexp.MustCompile(`^([CСPS]\.) ?(\d+\D{1,3}\d+)`),
	}
)

// PagesFor returns the pagination rule for a citation kind.
func PagesFor(kind isbd.Kind) PageRule {
	if kind == isbd.Analytic {
		return AnalyticPages
	}
	return MonographPages
}

// Apply writes the pagination of area when the rule matches.
func (p PageRule) Apply(rec *record.Record, area string) bool {
	m := p.pattern.FindStringSubmatch(area)
	if m == nil {
		return false
	}
	rec.SetAt(p.Tag, 1, p.Codes[0], m[1])
	rec.SetAt(p.Tag, 1, p.Codes[1], m[2])
	return true
}

// AreaExtractor applies the publication, pagination, edition, numbering and
// identifier rules to the areas that follow a title area.
type AreaExtractor struct {
	publisherPattern   *regexp.Regexp
	bareYearPattern    *regexp.Regexp
	leadingYearPattern *regexp.Regexp
	editionPattern     *regexp.Regexp
	issuePattern       *regexp.Regexp
}

// NewAreaExtractor creates an extractor with compiled patterns.
func NewAreaExtractor() *AreaExtractor {
	return &AreaExtractor{
		// "place : publisher, year", both place and publisher optional.
		publisherPattern: regexp.MustCompile(`([^:]*?)(?: ?: (.*?))?, (\d{4})`),
		// An area holding only a year; monographs only.
		bareYearPattern:    regexp.MustCompile(`^(\d{4})\.?$`),
		leadingYearPattern: regexp.MustCompile(`^\d{4}`),
		editionPattern:     regexp.MustCompile(`^\d{1,2}-е из.*`),
		// Numbering keywords followed by numbering that holds at least one
		// digit or roman numeral.
		issuePattern: regexp.MustCompile(`(?i)(?:issue|no\.|v(?:\.|ol(?:\.|ume))|вып(?:\.|уск)|т(?:\.|ом\.?)|ч(?:\.|асть)|№){1,2} ?[-(),/ ]*[\dIVXDC][-(),/\d IVXDC]*`),
	}
}

// HasPublisherYear reports whether any of areas matches the publisher rule.
func (x *AreaExtractor) HasPublisherYear(areas []string, kind isbd.Kind) bool {
	for _, area := range areas {
		if _, ok := x.matchPublisher(area, kind); ok {
			return true
		}
	}
	return false
}

// Apply runs every rule on area and returns the rules that fired.
func (x *AreaExtractor) Apply(rec *record.Record, area string, ctx AreaContext) Matches {
	var fired Rule
	mark := func(r Rule, ok bool) {
		if ok {
			fired |= r
		}
	}

	mark(RulePublisher, x.Publisher(rec, area, ctx.Kind))
	mark(RuleDate, x.DateOnly(rec, area, ctx))
	mark(RulePages, PagesFor(ctx.Kind).Apply(rec, area))
	mark(RuleEdition, x.Edition(rec, area))
	mark(RuleIssue, x.Issue(rec, area))
	mark(RuleEDN, EDN(rec, area))
	mark(RuleISBN, ISBN(rec, area, ctx.Kind))
	mark(RuleDOI, DOI(rec, area))

	return Matches(fired)
}

// matchPublisher returns place, publisher and year of area.
func (x *AreaExtractor) matchPublisher(area string, kind isbd.Kind) ([3]string, bool) {
	if m := x.publisherPattern.FindStringSubmatch(area); m != nil {
		return [3]string{m[1], m[2], m[3]}, true
	}
	if kind == isbd.Monograph {
		if m := x.bareYearPattern.FindStringSubmatch(area); m != nil {
			return [3]string{"", "", m[1]}, true
		}
	}
	return [3]string{}, false
}

// Publisher writes place, publisher and year, substituting the "sine loco",
// "sine nomine" and "sine anno" placeholders for missing parts.
func (x *AreaExtractor) Publisher(rec *record.Record, area string, kind isbd.Kind) bool {
	parts, ok := x.matchPublisher(area, kind)
	if !ok {
		return false
	}
	target := publisherTargets[kind]
	codes := [3]string{target.Place, target.Publisher, target.Year}
	placeholders := [3]string{NoPlace, NoPublisher, NoYear}
	for i, value := range parts {
		value = strings.TrimSpace(value)
		if value == "" {
			value = placeholders[i]
		}
		rec.SetAt(target.Tag, 1, codes[i], value)
	}
	return true
}

// DateOnly writes the year an analytic source area starts with, unless the
// publisher rule matched somewhere in the citation.
func (x *AreaExtractor) DateOnly(rec *record.Record, area string, ctx AreaContext) bool {
	if ctx.Kind != isbd.Analytic || ctx.PublisherYear {
		return false
	}
	year := x.leadingYearPattern.FindString(area)
	if year == "" {
		return false
	}
	rec.SetAt(TagSource, 1, "J", year)
	return true
}

// Edition writes an edition statement ("2-е изд., испр. и доп.") split into
// at most two parts.
func (x *AreaExtractor) Edition(rec *record.Record, area string) bool {
	statement := x.editionPattern.FindString(area)
	if statement == "" {
		return false
	}
	parts := strings.Split(statement, ", ")
	for i, code := range []string{"A", "B"} {
		if i >= len(parts) {
			break
		}
		rec.SetAt(TagEdition, 1, code, parts[i])
	}
	return true
}

// Issue writes up to three volume/issue/part designations. Keywords glued
// to a preceding letter ("науч.") are not designations.
func (x *AreaExtractor) Issue(rec *record.Record, area string) bool {
	var found []string
	for _, loc := range x.issuePattern.FindAllStringIndex(area, -1) {
		if loc[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(area[:loc[0]])
			if unicode.IsLetter(prev) {
				continue
			}
		}
		found = append(found, strings.TrimRight(area[loc[0]:loc[1]], ", "))
	}
	if len(found) == 0 {
		return false
	}
	for i, value := range found {
		if i >= len(issueCodes) {
			break
		}
		rec.SetAt(TagSource, 1, issueCodes[i], value)
	}
	return true
}

// EDN writes an eLIBRARY link built from the six characters after "EDN ".
func EDN(rec *record.Record, area string) bool {
	if !strings.HasPrefix(area, "EDN") {
		return false
	}
	runes := []rune(area)
	var code string
	if len(runes) > 4 {
		code = string(runes[4:min(len(runes), 10)])
	}
	rec.SetAt(TagLink, 1, "T", ednLabel)
	rec.SetAt(TagLink, 1, "I", ednURL+code)
	rec.SetAt(TagLink, 1, "H", ednLinkType)
	return true
}

// ISBN writes the number of an "ISBN ..." area: to 10^a for a monograph,
// to 961^i (the host item) for an analytic.
func ISBN(rec *record.Record, area string, kind isbd.Kind) bool {
	if !strings.HasPrefix(area, "ISBN") {
		return false
	}
	value := identifier(area, "ISBN")
	if kind == isbd.Analytic {
		rec.SetAt(TagSourceAuthors, 1, "I", value)
	} else {
		rec.SetAt(TagISBN, 1, "A", value)
	}
	return true
}

// DOI writes the identifier of a "DOI ..." area to field 19.
func DOI(rec *record.Record, area string) bool {
	if !strings.HasPrefix(area, "DOI") {
		return false
	}
	rec.SetAt(TagIdentifier, 1, "A", doiLabel)
	rec.SetAt(TagIdentifier, 1, "B", identifier(area, "DOI"))
	return true
}

// identifier strips the label and the closing full stop of the last area.
func identifier(area, label string) string {
	value := strings.TrimSpace(strings.TrimPrefix(area, label))
	return strings.TrimSuffix(value, ".")
}
