package record

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestParseAddress(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  Address
	}{
		{"tag_only", "920", Address{Tag: 920, Subfield: NoSubfields, Occurrence: 1}},
		{"tag_subfield", "200^a", Address{Tag: 200, Subfield: "A", Occurrence: 1}},
		{"upper_subfield", "19^B", Address{Tag: 19, Subfield: "B", Occurrence: 1}},
		{"digit_subfield", "701^4#2", Address{Tag: 701, Subfield: "4", Occurrence: 2}},
		{"tag_occurrence", "610#3", Address{Tag: 610, Subfield: NoSubfields, Occurrence: 3}},
		{"append", "610#n", Address{Tag: 610, Subfield: NoSubfields, Append: true}},
		{"append_subfield", "961^a#n", Address{Tag: 961, Subfield: "A", Append: true}},
		{"leading_zero_tag", "010^a", Address{Tag: 10, Subfield: "A", Occurrence: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAddress(tc.token)
			if err != nil {
				t.Fatalf("ParseAddress(%q) failed: %v", tc.token, err)
			}
			if got != tc.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tc.token, got, tc.want)
			}
		})
	}
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	tokens := []string{
		"",
		"^a",
		"abc",
		"200^",
		"200^ab",
		"200^12",
		"200#",
		"200#0",
		"200#x",
		"200^a#1#2",
		"200 ^a",
		"200^_",
		"200^a#1 ",
	}
	for _, token := range tokens {
		t.Run(token, func(t *testing.T) {
			_, err := ParseAddress(token)
			if err == nil {
				t.Fatalf("ParseAddress(%q) succeeded, want error", token)
			}
			if !errors.Is(err, ErrMalformedAddress) {
				t.Errorf("error %v does not wrap ErrMalformedAddress", err)
			}
			var addrErr *AddressError
			if !errors.As(err, &addrErr) || addrErr.Address != token {
				t.Errorf("expected *AddressError for %q, got %T", token, err)
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	for _, token := range []string{"200^A", "701^4#2", "610#n", "920"} {
		if got := MustParseAddress(token).String(); got != token {
			t.Errorf("String() = %q, want %q", got, token)
		}
	}
}

func TestMustParseAddressPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParseAddress("bad")
}

func TestLocatorWriteFillsGaps(t *testing.T) {
	rec := New()
	if err := rec.Set("701^a#3", "Сидоров"); err != nil {
		t.Fatal(err)
	}

	f, ok := rec.Field(701)
	if !ok {
		t.Fatal("field 701 not created")
	}
	if f.Count() != 3 {
		t.Fatalf("Count: got %d, want 3", f.Count())
	}
	for i := 1; i <= 2; i++ {
		occ, _ := f.Occurrence(i)
		if occ.Len() != 0 {
			t.Errorf("occurrence %d should be empty, has %v", i, occ.Codes())
		}
	}
	if got := rec.Value(701, 3, "A"); got != "Сидоров" {
		t.Errorf("701#3^A: got %q", got)
	}
	if got := f.Summary("A"); !reflect.DeepEqual(got, []string{"", "", "Сидоров"}) {
		t.Errorf("Summary(A): got %q", got)
	}
}

func TestEmptyWriteCreatesOccurrence(t *testing.T) {
	rec := New()
	rec.Resolve(MustParseAddress("200^e")).Write("")

	f, ok := rec.Field(200)
	if !ok || f.Count() != 1 {
		t.Fatalf("expected field 200 with one occurrence, got ok=%v", ok)
	}
	occ, _ := f.Occurrence(1)
	if occ.Len() != 0 {
		t.Errorf("empty write stored a subfield: %v", occ.Codes())
	}
	if codes := f.SummaryCodes(); len(codes) != 0 {
		t.Errorf("summary should be empty, got %v", codes)
	}
}

func TestAppendOccurrence(t *testing.T) {
	rec := New()
	rec.Resolve(MustParseAddress("610#n")).Write("физика")
	rec.Resolve(MustParseAddress("610#n")).Write("химия")

	f, _ := rec.Field(610)
	if f.Count() != 2 {
		t.Fatalf("Count: got %d, want 2", f.Count())
	}
	if got := f.Summary(NoSubfields); !reflect.DeepEqual(got, []string{"физика", "химия"}) {
		t.Errorf("Summary: got %q", got)
	}
	if rec.Next(610) != 3 || rec.Next(999) != 1 {
		t.Errorf("Next: got %d/%d, want 3/1", rec.Next(610), rec.Next(999))
	}
}

func TestSummaryLengthInvariant(t *testing.T) {
	rec := New()
	writes := []struct {
		token string
		value string
	}{
		{"701^a#1", "Иванов"},
		{"701^b#1", "И. И."},
		{"701^a#2", "Петров"},
		{"701^4#4", "340ред."},
		{"701^b#2", ""},
	}
	for _, w := range writes {
		if err := rec.Set(w.token, w.value); err != nil {
			t.Fatal(err)
		}
		f, _ := rec.Field(701)
		for _, code := range f.SummaryCodes() {
			if n := len(f.Summary(code)); n != f.Count() {
				t.Errorf("after %s: Summary(%s) has %d entries, want %d", w.token, code, n, f.Count())
			}
		}
	}

	f, _ := rec.Field(701)
	if !f.RemoveOccurrence(1) {
		t.Fatal("RemoveOccurrence(1) failed")
	}
	if f.Count() != 3 {
		t.Fatalf("Count after removal: got %d, want 3", f.Count())
	}
	if got := f.Summary("A"); !reflect.DeepEqual(got, []string{"Петров", "", ""}) {
		t.Errorf("Summary(A) after removal: got %q", got)
	}
	if f.RemoveOccurrence(0) || f.RemoveOccurrence(9) {
		t.Error("RemoveOccurrence accepted an invalid index")
	}
}

func TestOccurrenceOrderAndEqual(t *testing.T) {
	rec := New()
	rec.SetAt(200, 1, "A", "Заголовок")
	rec.SetAt(200, 1, "E", "монография")
	rec.SetAt(200, 1, "A", "Новый заголовок")

	f, _ := rec.Field(200)
	occ, _ := f.Occurrence(1)
	if got := occ.Codes(); !reflect.DeepEqual(got, []string{"A", "E"}) {
		t.Errorf("Codes: got %v, want [A E]", got)
	}
	if v, _ := occ.Get("A"); v != "Новый заголовок" {
		t.Errorf("overwrite lost: %q", v)
	}

	other := New()
	other.SetAt(200, 1, "E", "монография")
	other.SetAt(200, 1, "A", "Новый заголовок")
	g, _ := other.Field(200)
	occ2, _ := g.Occurrence(1)
	if !occ.Equal(occ2) {
		t.Error("occurrences with the same content in a different order should be equal")
	}
}

func TestRecordOrderAndClone(t *testing.T) {
	rec := New()
	rec.SetAt(920, 1, NoSubfields, "PAZK")
	rec.SetAt(200, 1, "A", "Заголовок")
	rec.SetAt(920, 1, NoSubfields, "ASP")

	if got := rec.Tags(); !reflect.DeepEqual(got, []int{920, 200}) {
		t.Errorf("Tags: got %v, want [920 200]", got)
	}

	clone := rec.Clone()
	rec.SetAt(200, 1, "A", "Изменено")
	if got := clone.Value(200, 1, "A"); got != "Заголовок" {
		t.Errorf("clone shares state with source: %q", got)
	}
	if clone.Len() != 2 {
		t.Errorf("clone Len: got %d", clone.Len())
	}
}

func TestRecordJSONRoundTrip(t *testing.T) {
	rec := New()
	rec.SetAt(200, 1, "A", "Заголовок")
	rec.SetAt(200, 1, "F", "И. И. Иванов")
	rec.SetAt(701, 2, "A", "Петров")
	rec.SetAt(920, 1, NoSubfields, "PAZK")

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	restored := New()
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(restored.Tags(), rec.Tags()) {
		t.Errorf("Tags: got %v, want %v", restored.Tags(), rec.Tags())
	}
	f, _ := restored.Field(701)
	if f.Count() != 2 || restored.Value(701, 2, "A") != "Петров" {
		t.Errorf("701 not restored: count=%d", f.Count())
	}
	g, _ := restored.Field(200)
	occ, _ := g.Occurrence(1)
	if !reflect.DeepEqual(occ.Codes(), []string{"A", "F"}) {
		t.Errorf("200 codes: got %v", occ.Codes())
	}
}

func TestEntryAndBatch(t *testing.T) {
	rec := New()
	rec.SetAt(200, 1, "A", "Заголовок")
	entry := NewEntry("Заголовок. - М., 2020", rec, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))
	rec.SetAt(200, 1, "A", "Другое")

	if entry.Record.Value(200, 1, "A") != "Заголовок" {
		t.Error("entry record is not frozen")
	}
	if entry.ID == "" {
		t.Error("entry has no ID")
	}

	var batch Batch
	batch.Append(entry)
	batch.Append(NewEntry("Второй", New(), time.Now()))
	if batch.Len() != 2 || batch.Entries()[0] != entry {
		t.Errorf("batch order broken: len=%d", batch.Len())
	}
}
