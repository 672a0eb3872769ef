package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/perbu/vecalign/pkg/vecalign"
)

const (
	msfBlock = 10 // columns per space-separated block
	msfLine  = 50 // columns per row
)

// WriteMSF writes rec as a two-row PileUp/MSF file. Besides the usual header
// it records the score, gap penalties and scorer, and the start position of
// each aligned string so ReadMSF can recover a local alignment.
func WriteMSF(w io.Writer, rec vecalign.Record, id1, id2 string) error {
	if len(rec.Aligned1) != len(rec.Aligned2) {
		return fmt.Errorf("aligned strings differ in length: %d vs %d", len(rec.Aligned1), len(rec.Aligned2))
	}
	if id1 == "" || id2 == "" || strings.ContainsAny(id1+id2, " \t\n") {
		return fmt.Errorf("invalid sequence ids %q and %q", id1, id2)
	}

	bw := bufio.NewWriter(w)
	n := rec.Len()
	fmt.Fprintf(bw, "PileUp\n\n\n\n")
	fmt.Fprintf(bw, "   MSF:  %d  Type:  P\n\n", n)
	fmt.Fprintf(bw, " Score: %s  Gopen: %s  Gext: %s  Scorer: %s\n\n",
		formatFloat(rec.Score), formatFloat(rec.Gaps.Open), formatFloat(rec.Gaps.Extend), scorerLabel(rec.Scorer))
	fmt.Fprintf(bw, " Name: %s oo  Len:  %d  Start:  %d\n", id1, n, rec.Start1)
	fmt.Fprintf(bw, " Name: %s oo  Len:  %d  Start:  %d\n\n//\n\n\n\n", id2, n, rec.Start2)

	width := max(len(id1), len(id2))
	for off := 0; off < n; off += msfLine {
		end := min(off+msfLine, n)
		fmt.Fprintf(bw, "%-*s      %s\n", width, id1, blocks(rec.Aligned1[off:end]))
		fmt.Fprintf(bw, "%-*s      %s\n\n", width, id2, blocks(rec.Aligned2[off:end]))
	}
	return bw.Flush()
}

func blocks(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i += msfBlock {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s[i:min(i+msfBlock, len(s))])
	}
	return sb.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func scorerLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// ReadMSF extracts the pairwise alignment of id1 and id2 from an MSF file.
// Columns gapped in both rows are dropped and '.' gaps become '-'. When the
// two ids are equal, matching rows alternate between the first and second
// sequence. Start positions default to 1 when the file does not carry them.
func ReadMSF(r io.Reader, id1, id2 string) (vecalign.Record, error) {
	var (
		rows    [2]strings.Builder
		starts  = [2]int{-1, -1}
		named   [2]bool
		seen    [2]bool
		rec     vecalign.Record
		body    bool
		nextRow int
		nextHdr int
	)

	// slot maps an identifier to the record side it belongs to.
	slot := func(id string, next *int) int {
		switch {
		case id1 == id2 && id == id1:
			s := *next
			*next = 1 - *next
			return s
		case id == id1:
			return 0
		case id == id2:
			return 1
		}
		return -1
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if !body {
			if fields[0] == "//" {
				body = true
				continue
			}
			kv := headerFields(fields)
			if name, ok := kv["Name"]; ok {
				s := slot(name, &nextHdr)
				if s < 0 {
					continue
				}
				named[s] = true
				if v, ok := kv["Start"]; ok {
					start, err := strconv.Atoi(v)
					if err != nil {
						return rec, fmt.Errorf("bad start %q for %s: %w", v, name, err)
					}
					starts[s] = start
				}
				continue
			}
			if err := readProvenance(kv, &rec); err != nil {
				return rec, err
			}
			continue
		}

		s := slot(fields[0], &nextRow)
		if s < 0 {
			continue
		}
		seen[s] = true
		for _, f := range fields[1:] {
			rows[s].WriteString(f)
		}
	}
	if err := scanner.Err(); err != nil {
		return rec, err
	}

	for s, id := range []string{id1, id2} {
		if !seen[s] && !named[s] {
			return rec, fmt.Errorf("sequence %q not found in MSF", id)
		}
	}

	a1, a2 := rows[0].String(), rows[1].String()
	if len(a1) != len(a2) {
		return rec, fmt.Errorf("rows for %q and %q differ in length: %d vs %d", id1, id2, len(a1), len(a2))
	}

	b1 := make([]byte, 0, len(a1))
	b2 := make([]byte, 0, len(a2))
	for i := 0; i < len(a1); i++ {
		g1, g2 := vecalign.IsGap(a1[i]), vecalign.IsGap(a2[i])
		if g1 && g2 {
			continue
		}
		b1 = append(b1, gapOrResidue(a1[i], g1))
		b2 = append(b2, gapOrResidue(a2[i], g2))
	}

	scorer, score, gaps := rec.Scorer, rec.Score, rec.Gaps
	rec = vecalign.NewRecord(string(b1), string(b2))
	rec.Seq1.ID, rec.Seq2.ID = id1, id2
	rec.Scorer, rec.Score, rec.Gaps = scorer, score, gaps
	if starts[0] > 0 && rec.Start1 > 0 {
		rec.Start1 = starts[0]
	}
	if starts[1] > 0 && rec.Start2 > 0 {
		rec.Start2 = starts[1]
	}
	return rec, nil
}

func gapOrResidue(c byte, gap bool) byte {
	if gap {
		return vecalign.GapChar
	}
	return c
}

// headerFields collects "Key: value" pairs from a header line.
func headerFields(fields []string) map[string]string {
	kv := make(map[string]string)
	for i := 0; i+1 < len(fields); i++ {
		key, ok := strings.CutSuffix(fields[i], ":")
		if !ok || key == "" {
			continue
		}
		kv[key] = fields[i+1]
		i++
	}
	return kv
}

func readProvenance(kv map[string]string, rec *vecalign.Record) error {
	for key, dst := range map[string]*float64{
		"Score": &rec.Score,
		"Gopen": &rec.Gaps.Open,
		"Gext":  &rec.Gaps.Extend,
	} {
		v, ok := kv[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("bad %s value %q: %w", key, v, err)
		}
		*dst = f
	}
	if v, ok := kv["Scorer"]; ok && v != "unknown" {
		rec.Scorer = v
	}
	return nil
}
