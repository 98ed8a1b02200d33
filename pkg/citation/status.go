package citation

import (
	"errors"
	"strings"

	"github.com/olgyan/IrbisTextFileMaker/pkg/isbd"
)

// Status is a user-facing progress or outcome message.
type Status string

const (
	StatusParsing      Status = "Разбираем..."
	StatusParsed       Status = "Разобрано"
	StatusNothing      Status = "Нечего разбирать."
	StatusNotReference Status = "В буфере обмена не библиографическая ссылка."
	StatusEmpty        Status = "В буфере обмена ничего не было."
	StatusLatinNames   Status = "Имена латиницей, нужно будет исправить."
)

const failurePrefix = "Что-то пошло не так: "

// Failure returns the generic failure message carrying err's text.
func Failure(err error) Status {
	return Status(failurePrefix + err.Error())
}

func (s Status) String() string {
	return string(s)
}

// CheckPaste decides whether pasted text should be parsed. It rejects empty
// text and text without the ISBD area delimiter.
func CheckPaste(text string) (Status, bool) {
	if strings.TrimSpace(text) == "" {
		return StatusEmpty, false
	}
	if !isbd.LooksLikeReference(text) {
		return StatusNotReference, false
	}
	return StatusParsing, true
}

// StatusFor maps the outcome of Parse to a message.
func StatusFor(res *Result, err error) Status {
	switch {
	case errors.Is(err, ErrNothingToParse):
		return StatusNothing
	case err != nil:
		return Failure(err)
	case res != nil && len(res.LatinNames) > 0:
		return StatusLatinNames
	default:
		return StatusParsed
	}
}
