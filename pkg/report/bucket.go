package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// Labels given to unlabelled rows, by position.
const (
	MethodOne = "m1"
	MethodTwo = "m2"
)

// DefaultMinCount is the number of rows a bucket must exceed before its mean
// is reported.
const DefaultMinCount = 10

// Key selects the row value rows are bucketed by.
type Key int

const (
	ByIdentity Key = iota // similarity percentage
	ByLength              // reference pair count
)

// ParseKey maps "id" and "len" to a Key.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(s) {
	case "id", "identity":
		return ByIdentity, nil
	case "len", "length":
		return ByLength, nil
	}
	return 0, fmt.Errorf("unknown bucket key %q (want id or len)", s)
}

func (k Key) String() string {
	if k == ByLength {
		return "len"
	}
	return "id"
}

// Edges returns the default inclusive upper bounds for the key.
func (k Key) Edges() []float64 {
	if k == ByLength {
		return []float64{499, 999, 1499, 1999, 2499}
	}
	return []float64{9, 19, 29, 39, 49, 59, 69, 79, 89, 99}
}

func (k Key) value(r Row) float64 {
	if k == ByLength {
		return float64(r.RefLength)
	}
	return r.Similarity
}

// Bucket is one range of a summary.
type Bucket struct {
	Edge    float64 // inclusive upper bound
	Count   int
	MeanTCS float64 // 0 unless Count exceeds the minimum
}

// Summary holds per-method bucket averages.
type Summary struct {
	Key           Key
	Methods       []string
	Buckets       map[string][]Bucket
	Rows          int
	MeanRefLength float64
}

// Bucketize assigns every row to the first bucket whose edge is at least the
// row's key value and averages TCS per bucket and method. Rows above the last
// edge are counted in Rows but fall in no bucket. Buckets holding minCount
// rows or fewer report a mean of 0.
func Bucketize(rows []Row, key Key, edges []float64, minCount int) Summary {
	s := Summary{
		Key:     key,
		Buckets: make(map[string][]Bucket),
		Rows:    len(rows),
	}
	sums := make(map[string][]float64)

	var refTotal float64
	for _, r := range rows {
		refTotal += float64(r.RefLength)

		buckets, ok := s.Buckets[r.Method]
		if !ok {
			buckets = make([]Bucket, len(edges))
			for i, e := range edges {
				buckets[i].Edge = e
			}
			s.Buckets[r.Method] = buckets
			sums[r.Method] = make([]float64, len(edges))
			s.Methods = append(s.Methods, r.Method)
		}

		v := key.value(r)
		for i, e := range edges {
			if v <= e {
				buckets[i].Count++
				sums[r.Method][i] += r.TCS
				break
			}
		}
	}

	for method, buckets := range s.Buckets {
		for i := range buckets {
			if buckets[i].Count > minCount {
				buckets[i].MeanTCS = sums[method][i] / float64(buckets[i].Count)
			}
		}
	}
	if len(rows) > 0 {
		s.MeanRefLength = refTotal / float64(len(rows))
	}
	sort.Strings(s.Methods)
	return s
}

// Write prints the summary as a table with one column per method.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t", s.Key)
	for _, m := range s.Methods {
		fmt.Fprintf(tw, "%s\tn\t", m)
	}
	fmt.Fprintln(tw)

	if len(s.Methods) > 0 {
		for i, b := range s.Buckets[s.Methods[0]] {
			fmt.Fprintf(tw, "<=%g\t", b.Edge)
			for _, m := range s.Methods {
				mb := s.Buckets[m][i]
				fmt.Fprintf(tw, "%.2f\t%d\t", mb.MeanTCS, mb.Count)
			}
			fmt.Fprintln(tw)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "rows: %d  mean reference length: %.2f\n", s.Rows, s.MeanRefLength)
	return err
}
