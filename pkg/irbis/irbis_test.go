package irbis

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
)

func titleRecord() *record.Record {
	rec := record.New()
	rec.SetAt(200, 1, "A", "Заголовок")
	rec.SetAt(200, 1, "E", "учебник")
	rec.SetAt(200, 1, "F", "И. И. Иванов")
	rec.SetAt(701, 1, "A", "Иванов")
	rec.SetAt(701, 2, "A", "Петров")
	rec.SetAt(701, 2, "B", "П. П.")
	rec.SetAt(920, 1, record.NoSubfields, "PAZK")
	return rec
}

func TestImportLines(t *testing.T) {
	rec := titleRecord()
	cases := []struct {
		tag  int
		want []string
	}{
		{200, []string{"#200: ^aЗаголовок^eучебник^fИ. И. Иванов"}},
		{701, []string{"#701: ^aИванов", "#701: ^aПетров^bП. П."}},
		{920, []string{"#920: PAZK"}},
	}
	for _, tc := range cases {
		f, _ := rec.Field(tc.tag)
		if got := ImportLines(f); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ImportLines(%d) = %q, want %q", tc.tag, got, tc.want)
		}
	}
}

func TestImportLinesKeepWriteOrder(t *testing.T) {
	rec := record.New()
	rec.SetAt(200, 1, "F", "stmt")
	rec.SetAt(200, 1, "A", "title")
	rec.SetAt(200, 1, "F", "stmt2")
	f, _ := rec.Field(200)
	if got := ImportLines(f); !reflect.DeepEqual(got, []string{"#200: ^fstmt2^atitle"}) {
		t.Errorf("got %q", got)
	}
}

func TestPreviewLines(t *testing.T) {
	f, _ := titleRecord().Field(701)
	want := []string{"#701/1:_^aИванов", "#701/2:_^aПетров^bП. П."}
	if got := PreviewLines(f); !reflect.DeepEqual(got, want) {
		t.Errorf("PreviewLines = %q, want %q", got, want)
	}
}

func TestPreview(t *testing.T) {
	entry := record.NewEntry("Заголовок : учебник", titleRecord(), time.Now())
	got := Preview(entry)
	if !strings.HasPrefix(got, "*****\n\nЗаголовок : учебник\n\n#200/1:_^a") {
		t.Errorf("unexpected preview start: %q", got)
	}
	if !strings.Contains(got, "#920/1:_PAZK\n") {
		t.Errorf("bare value missing from preview: %q", got)
	}
}

func TestWriteImport(t *testing.T) {
	short := record.New()
	short.SetAt(200, 1, "A", "Книга")
	short.SetAt(900, 1, "B", "")
	short.SetAt(10, 1, "A", "1")

	entries := []*record.Entry{
		record.NewEntry("a", titleRecord(), time.Now()),
		record.NewEntry("b", short, time.Now()),
	}

	var buf bytes.Buffer
	if err := WriteImport(&buf, entries); err != nil {
		t.Fatalf("WriteImport failed: %v", err)
	}

	want := "#200: ^aЗаголовок^eучебник^fИ. И. Иванов\r\n" +
		"#701: ^aИванов\r\n" +
		"#701: ^aПетров^bП. П.\r\n" +
		"#920: PAZK\r\n" +
		"*****\r\n" +
		"#200: ^aКнига\r\n" +
		"#10: ^a1\r\n" +
		"*****\r\n"
	if got := buf.String(); got != want {
		t.Errorf("WriteImport:\ngot  %q\nwant %q", got, want)
	}
}

func TestWriteImportDropsShortLines(t *testing.T) {
	rec := record.New()
	rec.SetAt(900, 1, "B", "")
	rec.SetAt(10, 1, record.NoSubfields, "x")

	var buf bytes.Buffer
	if err := WriteImport(&buf, []*record.Entry{record.NewEntry("", rec, time.Now())}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "*****\r\n" {
		t.Errorf("got %q", got)
	}
}

func TestImportFileName(t *testing.T) {
	day := time.Date(2024, time.January, 9, 23, 0, 0, 0, time.UTC)
	if got := ImportFileName(day); got != "import_20240109.txt" {
		t.Errorf("got %q", got)
	}
}

func TestReadImportRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	entries := []*record.Entry{record.NewEntry("a", titleRecord(), time.Now())}
	if err := WriteImport(&buf, entries); err != nil {
		t.Fatal(err)
	}

	records, err := ReadImport(&buf)
	if err != nil {
		t.Fatalf("ReadImport failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	rec := records[0]
	if !reflect.DeepEqual(rec.Tags(), []int{200, 701, 920}) {
		t.Errorf("tags: got %v", rec.Tags())
	}
	if got := rec.Value(701, 2, "B"); got != "П. П." {
		t.Errorf("701#2^b: got %q", got)
	}
	if got := rec.Value(920, 1, record.NoSubfields); got != "PAZK" {
		t.Errorf("920: got %q", got)
	}
	f, _ := rec.Field(200)
	if got := ImportLines(f); !reflect.DeepEqual(got, []string{"#200: ^aЗаголовок^eучебник^fИ. И. Иванов"}) {
		t.Errorf("re-rendered 200: %q", got)
	}
}

func TestReadImportTrailingRecord(t *testing.T) {
	records, err := ReadImport(strings.NewReader("#200: ^aОдин\n*****\n\n#200: ^aДва\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records: got %d, want 2", len(records))
	}
	if got := records[1].Value(200, 1, "A"); got != "Два" {
		t.Errorf("second record: got %q", got)
	}
}

func TestReadImportMalformed(t *testing.T) {
	cases := []string{
		"200: ^aНет решётки",
		"#200 ^aНет двоеточия",
		"#abc: ^aНе число",
		"#0: ^aНоль",
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			if _, err := ReadImport(strings.NewReader(input)); err == nil {
				t.Errorf("ReadImport(%q) should fail", input)
			} else if !strings.Contains(err.Error(), "line 1") {
				t.Errorf("error lacks line number: %v", err)
			}
		})
	}
}
