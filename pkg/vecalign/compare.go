package vecalign

import "fmt"

// Comparison is the Total Column Score of a candidate alignment measured
// against a reference alignment of the same two sequences.
type Comparison struct {
	TCS              float64 // Percentage of reference pairs reproduced by the candidate
	RefLength        int     // Residue pairs in the reference
	ComparisonLength int     // Residue pairs in the candidate
	Shared           int     // Pairs present in both
	Similarity       float64 // Percentage of shared pairs with identical residues
}

// Pair is a residue pair implied by a non-gap alignment column, as 1-indexed
// positions in the two original sequences.
type Pair struct {
	Pos1, Pos2 int
}

// pairSet maps each aligned residue pair to whether its two symbols are
// identical.
type pairSet map[Pair]bool

// Pairs returns the residue pairs of every column where neither side is a
// gap, in column order.
func (r Record) Pairs() []Pair {
	p1, p2 := r.Positions(1), r.Positions(2)
	out := make([]Pair, 0, len(p1))
	for i := range p1 {
		if p1[i] > 0 && p2[i] > 0 {
			out = append(out, Pair{Pos1: p1[i], Pos2: p2[i]})
		}
	}
	return out
}

func (r Record) pairSet() pairSet {
	set := make(pairSet, len(r.Aligned1))
	p1, p2 := r.Positions(1), r.Positions(2)
	for i := range p1 {
		if p1[i] > 0 && p2[i] > 0 {
			set[Pair{Pos1: p1[i], Pos2: p2[i]}] = toUpper(r.Aligned1[i]) == toUpper(r.Aligned2[i])
		}
	}
	return set
}

// Compare computes the Total Column Score of candidate against reference.
// Both records must align the same two underlying sequences; they may differ
// only in how those sequences are aligned. TCS is 0 when the reference has
// no residue pairs and Similarity is 0 when no pairs are shared.
func Compare(reference, candidate Record) (Comparison, error) {
	if err := reference.check("reference"); err != nil {
		return Comparison{}, err
	}
	if err := candidate.check("candidate"); err != nil {
		return Comparison{}, err
	}
	if err := sameSequences(reference, candidate); err != nil {
		return Comparison{}, err
	}

	ref, cand := reference.pairSet(), candidate.pairSet()

	shared, identical := 0, 0
	for p := range cand {
		same, ok := ref[p]
		if !ok {
			continue
		}
		shared++
		if same {
			identical++
		}
	}

	cmp := Comparison{
		RefLength:        len(ref),
		ComparisonLength: len(cand),
		Shared:           shared,
	}
	if cmp.RefLength > 0 {
		cmp.TCS = 100 * float64(shared) / float64(cmp.RefLength)
	}
	if shared > 0 {
		cmp.Similarity = 100 * float64(identical) / float64(shared)
	}
	return cmp, nil
}

// check validates that the aligned strings describe the record's own
// sequences.
func (r Record) check(which string) error {
	const op = "compare"
	if len(r.Aligned1) != len(r.Aligned2) {
		return inputErrorf(op, "%s aligned strings differ in length (%d and %d)", which, len(r.Aligned1), len(r.Aligned2))
	}
	for k, seq := range []Sequence{r.Seq1, r.Seq2} {
		if r.Ungapped(k+1) != "" && r.start(k+1) < 1 {
			return inputErrorf(op, "%s sequence %d has residues but start position %d", which, k+1, r.start(k+1))
		}
		if seq.Residues == "" {
			continue
		}
		if err := r.matches(k+1, seq); err != nil {
			return inputErrorf(op, "%s sequence %d: %v", which, k+1, err)
		}
	}
	return nil
}

func (r Record) start(k int) int {
	if k == 2 {
		return r.Start2
	}
	return r.Start1
}

// matches reports whether the residues of aligned string k are the slice of
// seq that the record's start position says they are.
func (r Record) matches(k int, seq Sequence) error {
	residues := r.Ungapped(k)
	if residues == "" {
		return nil
	}
	start := r.start(k)
	end := start - 1 + len(residues)
	if end > seq.Len() {
		return fmt.Errorf("aligned residues end at position %d, past the end of %q (length %d)", end, seq.ID, seq.Len())
	}
	if !equalFold(residues, seq.Residues[start-1:end]) {
		return fmt.Errorf("aligned residues do not match %q at positions %d-%d", seq.ID, start, end)
	}
	return nil
}

// sameSequences checks that both records describe the same two underlying
// sequences. Known originals must be equal. When only one record knows an
// original, the other record's residues must be a slice of it. When neither
// does, every position both records cover must carry the same residue.
func sameSequences(reference, candidate Record) error {
	const op = "compare"
	for k := 1; k <= 2; k++ {
		refSeq, candSeq := reference.Seq1, candidate.Seq1
		if k == 2 {
			refSeq, candSeq = reference.Seq2, candidate.Seq2
		}
		switch {
		case refSeq.Residues != "" && candSeq.Residues != "":
			if !equalFold(refSeq.Residues, candSeq.Residues) {
				return inputErrorf(op, "reference and candidate align different sequences (%q and %q)", refSeq.ID, candSeq.ID)
			}
			continue
		case candSeq.Residues != "":
			if err := reference.matches(k, candSeq); err != nil {
				return inputErrorf(op, "reference is not over candidate sequence %d: %v", k, err)
			}
			continue
		case refSeq.Residues != "":
			if err := candidate.matches(k, refSeq); err != nil {
				return inputErrorf(op, "candidate is not over reference sequence %d: %v", k, err)
			}
			continue
		}

		refRes := reference.residueAt(k)
		candRes := candidate.residueAt(k)
		for pos, c := range candRes {
			if r, ok := refRes[pos]; ok && toUpper(r) != toUpper(c) {
				return inputErrorf(op, "sequence %d differs at position %d (%c in reference, %c in candidate)", k, pos, r, c)
			}
		}
	}
	return nil
}

func (r Record) residueAt(k int) map[int]byte {
	aligned := r.Aligned1
	if k == 2 {
		aligned = r.Aligned2
	}
	pos := r.Positions(k)
	out := make(map[int]byte, len(pos))
	for i, p := range pos {
		if p > 0 {
			out[p] = aligned[i]
		}
	}
	return out
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toUpper(a[i]) != toUpper(b[i]) {
			return false
		}
	}
	return true
}
