package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrMalformedAddress is wrapped by every address parsing failure.
var ErrMalformedAddress = errors.New("malformed field address")

// AddressError describes why an address token was rejected.
type AddressError struct {
	Address string // Token as given
	Reason  string // Human-readable reason
	Err     error  // Underlying parser error, if any
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("field address %q: %s", e.Address, e.Reason)
}

func (e *AddressError) Unwrap() error {
	if e.Err != nil {
		return errors.Join(ErrMalformedAddress, e.Err)
	}
	return ErrMalformedAddress
}

// Address locates a write target: a field tag, a subfield code and an
// occurrence. Append means "a brand-new occurrence after the last one".
type Address struct {
	Tag        int
	Subfield   string
	Occurrence int
	Append     bool
}

func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(a.Tag))
	if a.Subfield != NoSubfields {
		sb.WriteString("^")
		sb.WriteString(a.Subfield)
	}
	switch {
	case a.Append:
		sb.WriteString("#n")
	case a.Occurrence != 1:
		sb.WriteString("#")
		sb.WriteString(strconv.Itoa(a.Occurrence))
	}
	return sb.String()
}

// addressGrammar is the participle grammar for TAG[^SUBFIELD][#OCCURRENCE].
// Examples: "200", "200^a", "701^4#2", "610#n"
//
//nolint:govet // participle grammar tags are not standard struct tags
type addressGrammar struct {
	Tag        string  `parser:"@Number"`
	Subfield   *string `parser:"( \"^\" @( Letter | Number ) )?"`
	Occurrence *string `parser:"( \"#\" @( Number | Letter ) )?"`
}

var addressLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Letter", Pattern: `[A-Za-z]`},
	{Name: "Punct", Pattern: `[\^#]`},
})

var addressParser = participle.MustBuild[addressGrammar](
	participle.Lexer(addressLexer),
)

// ParseAddress parses an address token such as "700^a#1".
// The subfield code is upper-cased; a missing subfield means NoSubfields and
// a missing occurrence means 1. "#n" requests a new occurrence.
func ParseAddress(token string) (Address, error) {
	if token == "" {
		return Address{}, &AddressError{Address: token, Reason: "empty address"}
	}

	parsed, err := addressParser.ParseString("", token)
	if err != nil {
		return Address{}, &AddressError{Address: token, Reason: "does not match TAG[^SUBFIELD][#OCCURRENCE]", Err: err}
	}

	tag, err := strconv.Atoi(parsed.Tag)
	if err != nil {
		return Address{}, &AddressError{Address: token, Reason: "tag is not a number", Err: err}
	}

	addr := Address{Tag: tag, Subfield: NoSubfields, Occurrence: 1}

	if parsed.Subfield != nil {
		if len(*parsed.Subfield) != 1 {
			return Address{}, &AddressError{Address: token, Reason: "subfield code must be one character"}
		}
		addr.Subfield = strings.ToUpper(*parsed.Subfield)
	}

	if parsed.Occurrence != nil {
		occ := *parsed.Occurrence
		switch {
		case occ == "n":
			addr.Append = true
			addr.Occurrence = 0
		default:
			n, err := strconv.Atoi(occ)
			if err != nil {
				return Address{}, &AddressError{Address: token, Reason: "occurrence must be a number or n", Err: err}
			}
			if n < 1 {
				return Address{}, &AddressError{Address: token, Reason: "occurrence is 1-based"}
			}
			addr.Occurrence = n
		}
	}

	return addr, nil
}

// MustParseAddress is ParseAddress for constant tokens; it panics on error.
func MustParseAddress(token string) Address {
	addr, err := ParseAddress(token)
	if err != nil {
		panic(err)
	}
	return addr
}
