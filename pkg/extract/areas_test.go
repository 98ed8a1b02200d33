package extract

import (
	"testing"

	"github.com/olgyan/IrbisTextFileMaker/pkg/isbd"
	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

func TestPublisher(t *testing.T) {
	cases := []struct {
		name      string
		area      string
		kind      isbd.Kind
		tag       int
		codes     [3]string
		want      [3]string
		wantMatch bool
	}{
		{
			name:      "place_publisher_year",
			area:      "М. : Наука, 2020",
			kind:      isbd.Monograph,
			tag:       TagPublication,
			codes:     [3]string{"A", "C", "D"},
			want:      [3]string{"М.", "Наука", "2020"},
			wantMatch: true,
		},
		{
			name:      "no_publisher",
			area:      "М., 2019",
			kind:      isbd.Monograph,
			tag:       TagPublication,
			codes:     [3]string{"A", "C", "D"},
			want:      [3]string{"М.", NoPublisher, "2019"},
			wantMatch: true,
		},
		{
			name:      "bare_year_monograph",
			area:      "2020",
			kind:      isbd.Monograph,
			tag:       TagPublication,
			codes:     [3]string{"A", "C", "D"},
			want:      [3]string{NoPlace, NoPublisher, "2020"},
			wantMatch: true,
		},
		{
			name:      "analytic_source",
			area:      "СПб. : Питер, 2018",
			kind:      isbd.Analytic,
			tag:       TagSource,
			codes:     [3]string{"D", "G", "J"},
			want:      [3]string{"СПб.", "Питер", "2018"},
			wantMatch: true,
		},
		{
			name:      "bare_year_analytic_is_not_publisher",
			area:      "2020",
			kind:      isbd.Analytic,
			wantMatch: false,
		},
		{
			name:      "pages",
			area:      "200 с.",
			kind:      isbd.Monograph,
			wantMatch: false,
		},
	}

	x := NewAreaExtractor()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := record.New()
			if got := x.Publisher(rec, tc.area, tc.kind); got != tc.wantMatch {
				t.Fatalf("Publisher(%q): got %v, want %v", tc.area, got, tc.wantMatch)
			}
			if !tc.wantMatch {
				if rec.Len() != 0 {
					t.Errorf("no match but record has %d fields", rec.Len())
				}
				return
			}
			for i, code := range tc.codes {
				if got := rec.Value(tc.tag, 1, code); got != tc.want[i] {
					t.Errorf("%d^%s: got %q, want %q", tc.tag, code, got, tc.want[i])
				}
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	x := NewAreaExtractor()

	rec := record.New()
	if !x.DateOnly(rec, "2021", AreaContext{Kind: isbd.Analytic}) {
		t.Fatal("year not taken")
	}
	if got := rec.Value(TagSource, 1, "J"); got != "2021" {
		t.Errorf("463^j: got %q", got)
	}

	rec = record.New()
	if x.DateOnly(rec, "2021", AreaContext{Kind: isbd.Analytic, PublisherYear: true}) {
		t.Error("date-only fired although the publisher rule matched")
	}
	if x.DateOnly(rec, "2021", AreaContext{Kind: isbd.Monograph}) {
		t.Error("date-only fired for a monograph")
	}
	if x.DateOnly(rec, "Т. 5", AreaContext{Kind: isbd.Analytic}) {
		t.Error("date-only fired without a year")
	}
}

func TestHasPublisherYear(t *testing.T) {
	x := NewAreaExtractor()
	cases := []struct {
		name  string
		areas []string
		kind  isbd.Kind
		want  bool
	}{
		{"analytic_with_publisher", []string{"М. : Наука, 2020", "С. 1-5"}, isbd.Analytic, true},
		{"analytic_bare_year", []string{"2021", "Т. 5, № 2", "С. 10-20"}, isbd.Analytic, false},
		{"monograph_bare_year", []string{"2021", "200 с."}, isbd.Monograph, true},
		{"none", nil, isbd.Monograph, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := x.HasPublisherYear(tc.areas, tc.kind); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPageRules(t *testing.T) {
	cases := []struct {
		name   string
		rule   PageRule
		area   string
		first  string
		second string
	}{
		{"monograph", MonographPages, "200 с.", "200", "с."},
		{"monograph_latin_unit", MonographPages, "35 p.", "35", "p."},
		{"analytic", AnalyticPages, "С. 10-20.", "С.", "10-20"},
		{"analytic_joined_en_dash", AnalyticPages, "P.117–125", "P.", "117–125"},
		{"analytic_lower_case_label", AnalyticPages, "pp. 117-125", "", ""},
		{"analytic_latin", AnalyticPages, "P. 117-125", "P.", "117-125"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := record.New()
			matched := tc.rule.Apply(rec, tc.area)
			if matched != (tc.first != "") {
				t.Fatalf("Apply(%q): got %v", tc.area, matched)
			}
			if !matched {
				return
			}
			if got := rec.Value(tc.rule.Tag, 1, tc.rule.Codes[0]); got != tc.first {
				t.Errorf("%d^%s: got %q, want %q", tc.rule.Tag, tc.rule.Codes[0], got, tc.first)
			}
			if got := rec.Value(tc.rule.Tag, 1, tc.rule.Codes[1]); got != tc.second {
				t.Errorf("%d^%s: got %q, want %q", tc.rule.Tag, tc.rule.Codes[1], got, tc.second)
			}
		})
	}

	if PagesFor(isbd.Analytic).Tag != TagSource || PagesFor(isbd.Monograph).Tag != TagPhysical {
		t.Error("PagesFor picked the wrong rule")
	}
}

func TestEdition(t *testing.T) {
	x := NewAreaExtractor()
	rec := record.New()
	if !x.Edition(rec, "2-е изд., испр. и доп.") {
		t.Fatal("edition not matched")
	}
	if got := rec.Value(TagEdition, 1, "A"); got != "2-е изд." {
		t.Errorf("205^a: got %q", got)
	}
	if got := rec.Value(TagEdition, 1, "B"); got != "испр. и доп." {
		t.Errorf("205^b: got %q", got)
	}
	if x.Edition(record.New(), "Изд. 2-е") {
		t.Error("edition must start with the number")
	}
}

func TestIssue(t *testing.T) {
	cases := []struct {
		name string
		area string
		want []string
	}{
		{"volume_and_number", "Т. 5, № 2", []string{"Т. 5", "№ 2"}},
		{"at_most_three", "Т. 1, вып. 2, ч. 3, № 4", []string{"Т. 1", "вып. 2", "ч. 3"}},
		{"english", "Vol. 12, no. 3", []string{"Vol. 12", "no. 3"}},
		{"roman", "Ч. II", []string{"Ч. II"}},
		{"keyword_inside_word", "Сборник науч. 12", nil},
		{"no_numbering", "Вып. особый", nil},
	}

	x := NewAreaExtractor()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := record.New()
			matched := x.Issue(rec, tc.area)
			if matched != (len(tc.want) > 0) {
				t.Fatalf("Issue(%q): got %v", tc.area, matched)
			}
			for i, want := range tc.want {
				if got := rec.Value(TagSource, 1, issueCodes[i]); got != want {
					t.Errorf("463^%s: got %q, want %q", issueCodes[i], got, want)
				}
			}
		})
	}
}

func TestIdentifiers(t *testing.T) {
	t.Run("edn", func(t *testing.T) {
		rec := record.New()
		if !EDN(rec, "EDN ABCDEF") {
			t.Fatal("EDN not matched")
		}
		if got := rec.Value(TagLink, 1, "I"); got != "https://elibrary.ru/item.asp?edn=ABCDEF" {
			t.Errorf("951^i: got %q", got)
		}
		if got := rec.Value(TagLink, 1, "T"); got != "Ссылка на публикацию" {
			t.Errorf("951^t: got %q", got)
		}
		if got := rec.Value(TagLink, 1, "H"); got != "05" {
			t.Errorf("951^h: got %q", got)
		}
	})

	t.Run("isbn_monograph", func(t *testing.T) {
		rec := record.New()
		if !ISBN(rec, "ISBN 978-5-00000-000-0", isbd.Monograph) {
			t.Fatal("ISBN not matched")
		}
		if got := rec.Value(TagISBN, 1, "A"); got != "978-5-00000-000-0" {
			t.Errorf("10^a: got %q", got)
		}
	})

	t.Run("isbn_analytic", func(t *testing.T) {
		rec := record.New()
		ISBN(rec, "ISBN 978-5-00000-000-0.", isbd.Analytic)
		if got := rec.Value(TagSourceAuthors, 1, "I"); got != "978-5-00000-000-0" {
			t.Errorf("961^i: got %q", got)
		}
		if rec.Has(TagISBN) {
			t.Error("analytic ISBN written to field 10")
		}
	})

	t.Run("doi", func(t *testing.T) {
		rec := record.New()
		if !DOI(rec, "DOI 10.1000/xyz123.") {
			t.Fatal("DOI not matched")
		}
		if got := rec.Value(TagIdentifier, 1, "A"); got != "6 DOI" {
			t.Errorf("19^a: got %q", got)
		}
		if got := rec.Value(TagIdentifier, 1, "B"); got != "10.1000/xyz123" {
			t.Errorf("19^b: got %q", got)
		}
	})

	t.Run("no_prefix", func(t *testing.T) {
		rec := record.New()
		if EDN(rec, "См. EDN ABCDEF") || ISBN(rec, "без ISBN", isbd.Monograph) || DOI(rec, "doi 10.1") {
			t.Error("identifier rule fired without its prefix")
		}
	})
}

func TestApplyReportsMatches(t *testing.T) {
	x := NewAreaExtractor()
	rec := record.New()

	got := x.Apply(rec, "2020", AreaContext{Kind: isbd.Monograph, PublisherYear: true})
	if !got.Has(RulePublisher) {
		t.Error("publisher rule did not fire")
	}
	if got.Has(RuleDate) || got.Has(RulePages) || got.Has(RuleIssue) {
		t.Errorf("unexpected rules fired: %b", got)
	}

	got = x.Apply(rec, "2021", AreaContext{Kind: isbd.Analytic})
	if !got.Has(RuleDate) || got.Has(RulePublisher) {
		t.Errorf("analytic bare year: got %b", got)
	}
}
