// Package report reads and writes comparison results as CSV and summarises
// them into buckets of similarity or reference length.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/perbu/vecalign/pkg/vecalign"
)

// Row is one comparison result: a line of the results CSV.
type Row struct {
	TCS              float64
	RefLength        int
	ComparisonLength int
	Similarity       float64
	Method           string // empty when the row is unlabelled
}

// RowFrom converts a comparison into a CSV row.
func RowFrom(c vecalign.Comparison, method string) Row {
	return Row{
		TCS:              c.TCS,
		RefLength:        c.RefLength,
		ComparisonLength: c.ComparisonLength,
		Similarity:       c.Similarity,
		Method:           method,
	}
}

func (r Row) record() []string {
	rec := []string{
		strconv.FormatFloat(r.TCS, 'f', -1, 64),
		strconv.Itoa(r.RefLength),
		strconv.Itoa(r.ComparisonLength),
		strconv.FormatFloat(r.Similarity, 'f', -1, 64),
	}
	if r.Method != "" {
		rec = append(rec, r.Method)
	}
	return rec
}

// WriteCSV writes rows as tcs,ref_length,comparison_length,similarity with
// the method appended when set. No header line is written.
func WriteCSV(w io.Writer, rows []Row) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.UseCRLF = false
	for _, r := range rows {
		if err := csvWriter.Write(r.record()); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// AppendCSV appends one row to the CSV file at path, creating it if needed.
func AppendCSV(path string, row Row) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, []Row{row}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadCSV parses rows written by WriteCSV. Rows without a method column are
// labelled MethodOne and MethodTwo alternately, counting from the first row
// of r, the layout produced by comparing two methods in turn.
func ReadCSV(r io.Reader) ([]Row, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comment = '#'
	csvReader.FieldsPerRecord = -1
	csvReader.TrimLeadingSpace = true

	lines, err := csvReader.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(lines))
	for i, line := range lines {
		if len(line) < 4 || len(line) > 5 {
			return nil, fmt.Errorf("line %d: expected 4 or 5 fields, got %d", i+1, len(line))
		}
		var row Row
		if row.TCS, err = strconv.ParseFloat(line[0], 64); err != nil {
			return nil, fmt.Errorf("line %d: tcs: %w", i+1, err)
		}
		if row.RefLength, err = strconv.Atoi(line[1]); err != nil {
			return nil, fmt.Errorf("line %d: ref_length: %w", i+1, err)
		}
		if row.ComparisonLength, err = strconv.Atoi(line[2]); err != nil {
			return nil, fmt.Errorf("line %d: comparison_length: %w", i+1, err)
		}
		if row.Similarity, err = strconv.ParseFloat(line[3], 64); err != nil {
			return nil, fmt.Errorf("line %d: similarity: %w", i+1, err)
		}
		if len(line) == 5 {
			row.Method = strings.TrimSpace(line[4])
		}
		if row.Method == "" {
			row.Method = MethodOne
			if i%2 == 1 {
				row.Method = MethodTwo
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVFile reads the rows of a single CSV file.
func ReadCSVFile(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}
