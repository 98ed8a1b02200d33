package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

// etAl closes a statement that lists only the first few authors.
const etAl = "[и др.]"

// cyrillicPattern matches any letter of the Cyrillic block.
var cyrillicPattern = regexp.MustCompile(`[\x{0400}-\x{04FF}]`)

// Person is one name parsed out of a statement of responsibility.
type Person struct {
	Surname  string
	Initials string
	Role     string
}

// ParsePerson classifies the words of one name: capitalised words without a
// dot form the surname, capitalised words with a dot the initials, and
// lower-case words the role ("ред.", "под ред.").
func ParsePerson(text string) Person {
	var surname, initials, role []string
	for _, word := range strings.Fields(text) {
		first, _ := utf8.DecodeRuneInString(word)
		switch {
		case unicode.IsUpper(first) && !strings.Contains(word, "."):
			surname = append(surname, word)
		case unicode.IsUpper(first):
			initials = append(initials, word)
		case unicode.IsLower(first):
			role = append(role, word)
		}
	}
	return Person{
		Surname:  strings.Join(surname, " "),
		Initials: strings.Join(initials, " "),
		Role:     strings.Join(role, " "),
	}
}

// ExtractAuthors writes every person of a statement of responsibility to
// tag, one occurrence per person starting at the tag's next free occurrence.
// It returns the names written without Cyrillic letters; those usually need
// to be re-keyed by hand.
func (c *Codes) ExtractAuthors(rec *record.Record, tag int, statement string) []string {
	statement = strings.TrimSpace(statement)
	if strings.HasSuffix(statement, etAl) {
		statement = strings.TrimRight(strings.TrimSuffix(statement, etAl), " ")
	}
	if statement == "" {
		return nil
	}

	var latin []string
	first := rec.Next(tag)
	for i, text := range strings.Split(statement, ", ") {
		if !cyrillicPattern.MatchString(text) {
			latin = append(latin, text)
		}

		p := ParsePerson(text)
		occ := first + i
		rec.SetAt(tag, occ, CodeSurname, p.Surname)
		rec.SetAt(tag, occ, CodeInitials, p.Initials)
		if p.Role != "" {
			rec.SetAt(tag, occ, CodeRole, c.RoleCode(p.Role)+p.Role)
		}
	}
	return latin
}

// DropHeadingDuplicate removes the first 701 occurrence when it repeats the
// 700 heading. It reports whether an occurrence was removed.
func DropHeadingDuplicate(rec *record.Record) bool {
	heading, ok := rec.Field(TagHeading)
	if !ok {
		return false
	}
	authors, ok := rec.Field(TagAuthors)
	if !ok {
		return false
	}

	h, ok := heading.Occurrence(1)
	if !ok || h.Len() == 0 {
		return false
	}
	a, ok := authors.Occurrence(1)
	if !ok || !h.Equal(a) {
		return false
	}
	return authors.RemoveOccurrence(1)
}
