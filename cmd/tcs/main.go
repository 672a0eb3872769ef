package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perbu/vecalign/pkg/loader"
	"github.com/perbu/vecalign/pkg/report"
	"github.com/perbu/vecalign/pkg/vecalign"
)

func main() {
	refPath := flag.String("ref", "", "reference MSF alignment")
	candPath := flag.String("cand", "", "candidate MSF alignment")
	id1 := flag.String("id1", "", "identifier of the first sequence")
	id2 := flag.String("id2", "", "identifier of the second sequence")
	csvPath := flag.String("csv", "", "append the result to this CSV file")
	method := flag.String("method", "", "method label for the CSV row")
	summary := flag.String("summary", "", "summarise every *.csv under this directory instead of comparing")
	by := flag.String("by", "id", "summary buckets: id (similarity) or len (reference length)")
	minCount := flag.Int("min", report.DefaultMinCount, "rows a bucket needs to exceed before it is averaged")
	flag.Parse()

	if *summary != "" {
		if err := summarise(*summary, *by, *minCount); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *refPath == "" || *candPath == "" || *id1 == "" || *id2 == "" {
		fmt.Fprintf(os.Stderr, "Usage: tcs -ref <msf> -cand <msf> -id1 <id> -id2 <id> [-csv file]\n")
		fmt.Fprintf(os.Stderr, "       tcs -summary <dir> [-by id|len]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ref, err := readMSF(*refPath, *id1, *id2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading reference: %v\n", err)
		os.Exit(1)
	}
	cand, err := readMSF(*candPath, *id1, *id2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading candidate: %v\n", err)
		os.Exit(1)
	}

	c, err := vecalign.Compare(ref, cand)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error comparing alignments: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("TCS: %.2f\n", c.TCS)
	fmt.Printf("Reference length: %d\n", c.RefLength)
	fmt.Printf("Comparison length: %d\n", c.ComparisonLength)
	fmt.Printf("Similarity: %.2f\n", c.Similarity)

	if *csvPath != "" {
		if err := report.AppendCSV(*csvPath, report.RowFrom(c, *method)); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
	}
}

func readMSF(path, id1, id2 string) (vecalign.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return vecalign.Record{}, err
	}
	defer file.Close()
	return loader.ReadMSF(file, id1, id2)
}

func summarise(dir, by string, minCount int) error {
	key, err := report.ParseKey(by)
	if err != nil {
		return err
	}

	paths, err := loader.Find(os.DirFS(dir), ".", ".csv")
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no CSV files under %s", dir)
	}

	var rows []report.Row
	for _, p := range paths {
		r, err := report.ReadCSVFile(filepath.Join(dir, p))
		if err != nil {
			return err
		}
		rows = append(rows, r...)
	}

	fmt.Printf("Read %d rows from %d files\n\n", len(rows), len(paths))
	return report.Bucketize(rows, key, key.Edges(), minCount).Write(os.Stdout)
}
