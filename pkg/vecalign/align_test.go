package vecalign

import (
	"math"
	"math/rand"
	"strings"
	"testing"
)

const testAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// oneHot builds a table where identical residues have cosine similarity 1
// and distinct residues 0.
func oneHot(residues string) Table {
	t := make(Table, len(residues))
	for i := 0; i < len(residues); i++ {
		v := make([]float32, len(testAlphabet))
		v[strings.IndexByte(testAlphabet, residues[i])] = 1
		t[i] = v
	}
	return t
}

func TestAlign(t *testing.T) {
	type test struct {
		seq1, seq2   string
		open, extend float64
		out1, out2   string
		start1       int
		start2       int
		score        float64
	}

	tests := []test{
		{"AAAA", "AAAA", 10, 1, "AAAA", "AAAA", 1, 1, 4},
		{"AAAA", "BBBB", 10, 1, "", "", 0, 0, 0},
		{"XXABCDYY", "ZABCDZ", 10, 1, "ABCD", "ABCD", 3, 2, 4},
		{"ABCDEFGHIJ", "ABCDEXFGHIJ", 1, 1, "ABCDE-FGHIJ", "ABCDEXFGHIJ", 1, 1, 9},
		{"ABCDEXFGHIJ", "ABCDEFGHIJ", 1, 1, "ABCDEXFGHIJ", "ABCDE-FGHIJ", 1, 1, 9},
		// Two equal local hits: the earlier one in row-major order wins.
		{"ABCDEFGHIJ", "ABCDEXFGHIJ", 10, 1, "ABCDE", "ABCDE", 1, 1, 5},
	}

	sep := strings.Repeat("-", 45)
	scorer := NewIdentityMatrix(testAlphabet, 1, -1)
	for _, test := range tests {
		rec, err := Align(NewSequence("s1", test.seq1), NewSequence("s2", test.seq2),
			scorer, GapPenalty{Open: test.open, Extend: test.extend})
		if err != nil {
			t.Fatalf("Align(%s, %s) error = %v", test.seq1, test.seq2, err)
		}

		if rec.Aligned1 != test.out1 || rec.Aligned2 != test.out2 || rec.Score != test.score {
			t.Fatalf(`Alignment for:
%s
%s
%s
%s
resulted in (score %v)
%s
%s
%s
%s
but should have been (score %v)
%s
%s
%s
%s`,
				sep, test.seq1, test.seq2, sep,
				rec.Score, sep, rec.Aligned1, rec.Aligned2, sep,
				test.score, sep, test.out1, test.out2, sep)
		}
		if rec.Start1 != test.start1 || rec.Start2 != test.start2 {
			t.Errorf("start positions = (%d, %d), want (%d, %d)", rec.Start1, rec.Start2, test.start1, test.start2)
		}
	}
}

// TestAlignTieBreaks pins the deterministic choice among equal-scoring
// paths: match predecessors rank Match > Gap1 > Gap2, gap cells extend
// before opening, and the earliest maximum in row-major order ends the
// alignment.
func TestAlignTieBreaks(t *testing.T) {
	tests := []struct {
		name           string
		seq1, seq2     string
		out1, out2     string
		start1, start2 int
		score          float64
	}{
		{"match before gap1", "ABC", "AAC", "ABC", "AAC", 1, 1, 3},
		{"match before gap2", "AAB", "ACB", "AAB", "ACB", 1, 1, 3},
		{"gap1 extends", "ABBCAB", "BABAB", "ABBCAB", "AB--AB", 1, 2, 6},
		{"gap2 extends", "ABCBAB", "BCCBBA", "BC--BA", "BCCBBA", 2, 1, 6},
		{"earliest maximum", "AAA", "AAB", "AA", "AA", 1, 1, 4},
		{"mixed", "BAABBC", "ABCCAA", "ABBC", "A-BC", 3, 1, 5},
	}

	scorer := NewIdentityMatrix(testAlphabet, 2, -1)
	gaps := GapPenalty{Open: 1, Extend: 1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Align(NewSequence("s1", tt.seq1), NewSequence("s2", tt.seq2), scorer, gaps)
			if err != nil {
				t.Fatalf("Align() error = %v", err)
			}
			if rec.Aligned1 != tt.out1 || rec.Aligned2 != tt.out2 || rec.Score != tt.score {
				t.Errorf("Align(%s, %s) = %s/%s score %v, want %s/%s score %v",
					tt.seq1, tt.seq2, rec.Aligned1, rec.Aligned2, rec.Score, tt.out1, tt.out2, tt.score)
			}
			if rec.Start1 != tt.start1 || rec.Start2 != tt.start2 {
				t.Errorf("start positions = (%d, %d), want (%d, %d)", rec.Start1, rec.Start2, tt.start1, tt.start2)
			}
		})
	}
}

func TestAlignRecordMetadata(t *testing.T) {
	gaps := GapPenalty{Open: 11, Extend: 1}
	rec, err := Align(NewSequence("a", "MKTAYIAK"), NewSequence("b", "MKTAYIAK"), BLOSUM62(), gaps)
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}
	if rec.Gaps != gaps {
		t.Errorf("Gaps = %+v, want %+v", rec.Gaps, gaps)
	}
	if rec.Scorer != "blosum62" {
		t.Errorf("Scorer = %s, want blosum62", rec.Scorer)
	}
	if rec.Seq1.ID != "a" || rec.Seq2.ID != "b" {
		t.Errorf("sequence ids = (%s, %s), want (a, b)", rec.Seq1.ID, rec.Seq2.ID)
	}
}

func TestAlignSelfWithEmbeddings(t *testing.T) {
	residues := "MKTAYIAKQRQISFVKSHFSRQ"
	seq := NewSequence("self", residues)
	tbl := oneHot(residues)

	rec, err := Align(seq, seq, NewEmbedding(tbl, tbl, "onehot"), GapPenalty{Open: 11, Extend: 1})
	if err != nil {
		t.Fatalf("Align() error = %v", err)
	}
	if rec.Aligned1 != residues || rec.Aligned2 != residues {
		t.Errorf("self alignment = %s / %s, want full-length identity", rec.Aligned1, rec.Aligned2)
	}
	if rec.Score != float64(len(residues)) {
		t.Errorf("Score = %v, want %d", rec.Score, len(residues))
	}
	if rec.GapColumns() != 0 {
		t.Errorf("GapColumns() = %d, want 0", rec.GapColumns())
	}
	if rec.Identity() != 100 {
		t.Errorf("Identity() = %v, want 100", rec.Identity())
	}
}

func TestAlignErrors(t *testing.T) {
	seq := NewSequence("s", "ACDE")
	matrix := NewIdentityMatrix(testAlphabet, 1, -1)
	ok := GapPenalty{Open: 10, Extend: 1}

	tests := []struct {
		name       string
		seq1, seq2 Sequence
		scorer     Scorer
		gaps       GapPenalty
	}{
		{"empty seq1", NewSequence("e", ""), seq, matrix, ok},
		{"empty seq2", seq, NewSequence("e", ""), matrix, ok},
		{"nil scorer", seq, seq, nil, ok},
		{"negative open", seq, seq, matrix, GapPenalty{Open: -1, Extend: 1}},
		{"negative extend", seq, seq, matrix, GapPenalty{Open: 1, Extend: -0.5}},
		{"nan open", seq, seq, matrix, GapPenalty{Open: math.NaN(), Extend: 1}},
		{"table length mismatch", seq, seq, NewEmbedding(oneHot("ACD"), oneHot("ACDE"), ""), ok},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Align(tt.seq1, tt.seq2, tt.scorer, tt.gaps)
			if !IsInputError(err) {
				t.Errorf("Align() error = %v, want InputError", err)
			}
		})
	}
}

func TestAlignGapMonotonicity(t *testing.T) {
	seq1 := NewSequence("s1", "ABCDEFGHIJ")
	seq2 := NewSequence("s2", "ABCDEXFGHIJ")
	scorer := NewIdentityMatrix(testAlphabet, 1, -1)

	prev := math.MaxInt
	for _, open := range []float64{1, 2, 4, 8, 16} {
		rec, err := Align(seq1, seq2, scorer, GapPenalty{Open: open, Extend: 1})
		if err != nil {
			t.Fatalf("Align() error = %v", err)
		}
		gaps := rec.GapColumns()
		if gaps > prev {
			t.Errorf("open=%v produced %d gap columns, more than %d at a cheaper penalty", open, gaps, prev)
		}
		prev = gaps
	}
	if prev != 0 {
		t.Errorf("expected no gaps at open=16, got %d", prev)
	}
}

func randomProtein(r *rand.Rand, n int) string {
	const residues = "ARNDCQEGHILKMFPSTWYV"
	b := make([]byte, n)
	for i := range b {
		b[i] = residues[r.Intn(len(residues))]
	}
	return string(b)
}

func randomTable(r *rand.Rand, n, dim int) Table {
	t := make(Table, n)
	for i := range t {
		t[i] = make([]float32, dim)
		for k := range t[i] {
			t[i][k] = float32(r.NormFloat64())
		}
	}
	return t
}

func TestAlignProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	gaps := GapPenalty{Open: 3, Extend: 0.5}

	for trial := 0; trial < 20; trial++ {
		s1 := NewSequence("a", randomProtein(r, 5+r.Intn(30)))
		s2 := NewSequence("b", randomProtein(r, 5+r.Intn(30)))
		t1, t2 := randomTable(r, s1.Len(), 8), randomTable(r, s2.Len(), 8)

		for _, pair := range []struct {
			fwd, rev Scorer
		}{
			{NewEmbedding(t1, t2, ""), NewEmbedding(t2, t1, "")},
			{BLOSUM62(), BLOSUM62()},
		} {
			fwd, err := Align(s1, s2, pair.fwd, gaps)
			if err != nil {
				t.Fatalf("Align() error = %v", err)
			}
			rev, err := Align(s2, s1, pair.rev, gaps)
			if err != nil {
				t.Fatalf("Align() error = %v", err)
			}

			if fwd.Score < 0 {
				t.Errorf("negative score %v", fwd.Score)
			}
			if math.Abs(fwd.Score-rev.Score) > 1e-9 {
				t.Errorf("swapping sequences changed the score: %v vs %v", fwd.Score, rev.Score)
			}

			// Upper bound: every residue of seq1 contributes at most its best match.
			score, _ := pair.fwd.Bind(s1, s2)
			bound := 0.0
			for i := 0; i < s1.Len(); i++ {
				best := 0.0
				for j := 0; j < s2.Len(); j++ {
					best = math.Max(best, score(i, j))
				}
				bound += best
			}
			if fwd.Score > bound+1e-9 {
				t.Errorf("score %v exceeds the upper bound %v", fwd.Score, bound)
			}

			if len(fwd.Aligned1) != len(fwd.Aligned2) {
				t.Fatalf("aligned strings differ in length: %q / %q", fwd.Aligned1, fwd.Aligned2)
			}
			if !fwd.Empty() {
				got := fwd.Ungapped(1)
				want := s1.Residues[fwd.Start1-1 : fwd.Start1-1+len(got)]
				if got != want {
					t.Errorf("aligned residues %q do not match seq1 at %d (%q)", got, fwd.Start1, want)
				}
			}
		}
	}
}

func TestRecordPositions(t *testing.T) {
	rec := Record{Aligned1: "AB-C", Aligned2: "A.CD", Start1: 3, Start2: 1}

	want1 := []int{3, 4, 0, 5}
	want2 := []int{1, 0, 2, 3}
	got1, got2 := rec.Positions(1), rec.Positions(2)
	for i := range want1 {
		if got1[i] != want1[i] || got2[i] != want2[i] {
			t.Fatalf("Positions() = %v / %v, want %v / %v", got1, got2, want1, want2)
		}
	}
	if rec.GapColumns() != 2 {
		t.Errorf("GapColumns() = %d, want 2", rec.GapColumns())
	}
	if rec.Ungapped(2) != "ACD" {
		t.Errorf("Ungapped(2) = %s, want ACD", rec.Ungapped(2))
	}
}

func TestGapPenaltyCost(t *testing.T) {
	g := GapPenalty{Open: 11, Extend: 1}
	for length, want := range map[int]float64{0: 0, 1: 11, 2: 12, 5: 15} {
		if got := g.Cost(length); got != want {
			t.Errorf("Cost(%d) = %v, want %v", length, got, want)
		}
	}
}
