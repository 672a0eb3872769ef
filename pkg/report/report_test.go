package report

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/perbu/vecalign/pkg/vecalign"
)

func TestCSVRoundTrip(t *testing.T) {
	rows := []Row{
		RowFrom(vecalign.Comparison{TCS: 200.0 / 3, RefLength: 3, ComparisonLength: 2, Similarity: 100}, "peba"),
		{TCS: 0, RefLength: 0, ComparisonLength: 1, Similarity: 0, Method: "blosum"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "66.66666666666667,3,2,100,peba\n") {
		t.Errorf("unexpected CSV:\n%s", buf.String())
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}
}

func TestReadCSVAlternatesMethods(t *testing.T) {
	in := "50,10,8,30\n60,10,9,30\n# comment\n70,12,12,40\n"
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	want := []string{MethodOne, MethodTwo, MethodOne}
	for i, r := range rows {
		if r.Method != want[i] {
			t.Errorf("row %d method = %s, want %s", i, r.Method, want[i])
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	for _, in := range []string{"1,2,3\n", "x,1,1,1\n", "1,1.5,1,1\n", "1,2,3,4,5,6\n"} {
		if _, err := ReadCSV(strings.NewReader(in)); err == nil {
			t.Errorf("ReadCSV(%q) expected error", in)
		}
	}
}

func TestAppendCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compare.csv")
	for i := 0; i < 3; i++ {
		if err := AppendCSV(path, Row{TCS: float64(i * 10), RefLength: 5, ComparisonLength: 5, Similarity: 50}); err != nil {
			t.Fatalf("AppendCSV() error = %v", err)
		}
	}
	rows, err := ReadCSVFile(path)
	if err != nil {
		t.Fatalf("ReadCSVFile() error = %v", err)
	}
	if len(rows) != 3 || rows[2].TCS != 20 {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestParseKey(t *testing.T) {
	if k, err := ParseKey("id"); err != nil || k != ByIdentity {
		t.Errorf("ParseKey(id) = %v, %v", k, err)
	}
	if k, err := ParseKey("LEN"); err != nil || k != ByLength {
		t.Errorf("ParseKey(LEN) = %v, %v", k, err)
	}
	if _, err := ParseKey("size"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestBucketize(t *testing.T) {
	var rows []Row
	// 11 rows of similarity 5 for m1, enough to be averaged.
	for i := 0; i < 11; i++ {
		rows = append(rows, Row{TCS: float64(i * 10), RefLength: 100, Similarity: 5, Method: "m1"})
	}
	// 10 rows in the next bucket: not enough.
	for i := 0; i < 10; i++ {
		rows = append(rows, Row{TCS: 90, RefLength: 300, Similarity: 15, Method: "m1"})
	}
	// Above the last edge.
	rows = append(rows, Row{TCS: 100, RefLength: 100, Similarity: 100, Method: "m1"})
	rows = append(rows, Row{TCS: 40, RefLength: 100, Similarity: 9, Method: "m2"})

	s := Bucketize(rows, ByIdentity, ByIdentity.Edges(), DefaultMinCount)
	if len(s.Methods) != 2 || s.Methods[0] != "m1" || s.Methods[1] != "m2" {
		t.Fatalf("Methods = %v", s.Methods)
	}

	m1 := s.Buckets["m1"]
	if m1[0].Count != 11 || math.Abs(m1[0].MeanTCS-50) > 1e-9 {
		t.Errorf("first bucket = %+v, want 11 rows averaging 50", m1[0])
	}
	if m1[1].Count != 10 || m1[1].MeanTCS != 0 {
		t.Errorf("second bucket = %+v, want 10 rows and no mean", m1[1])
	}
	total := 0
	for _, b := range m1 {
		total += b.Count
	}
	if total != 21 {
		t.Errorf("bucketed %d m1 rows, want 21", total)
	}
	if s.Buckets["m2"][0].Count != 1 {
		t.Errorf("m2 edge value should land in the first bucket")
	}
	if s.Rows != len(rows) {
		t.Errorf("Rows = %d, want %d", s.Rows, len(rows))
	}

	var out bytes.Buffer
	if err := s.Write(&out); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.Contains(out.String(), "<=9") || !strings.Contains(out.String(), "50.00") {
		t.Errorf("unexpected summary output:\n%s", out.String())
	}
}

func TestBucketizeByLength(t *testing.T) {
	rows := []Row{
		{TCS: 80, RefLength: 499, Method: "a"},
		{TCS: 60, RefLength: 500, Method: "a"},
		{TCS: 60, RefLength: 3000, Method: "a"},
	}
	s := Bucketize(rows, ByLength, ByLength.Edges(), 0)
	b := s.Buckets["a"]
	if b[0].Count != 1 || b[0].MeanTCS != 80 {
		t.Errorf("bucket <=499 = %+v", b[0])
	}
	if b[1].Count != 1 || b[1].MeanTCS != 60 {
		t.Errorf("bucket <=999 = %+v", b[1])
	}
	if math.Abs(s.MeanRefLength-1333) > 0.5 {
		t.Errorf("MeanRefLength = %v", s.MeanRefLength)
	}
}
