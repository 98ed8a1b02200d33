package extract

// IRBIS (RUSMARC-based) tags written by the extractors.
const (
	TagISBN          = 10
	TagIdentifier    = 19
	TagTitle         = 200
	TagEdition       = 205
	TagPublication   = 210
	TagPhysical      = 215
	TagSource        = 463
	TagHeading       = 700
	TagAuthors       = 701
	TagOtherAuthors  = 702
	TagRecordType    = 900
	TagAdmin         = 907
	TagWorksheet     = 920
	TagLink          = 951
	TagSourceAuthors = 961
	TagSourceTitle   = 963
)

// Subfield codes of the person fields (700, 701, 702, 961).
const (
	CodeSurname  = "A"
	CodeInitials = "B"
	CodeRole     = "4"
)
