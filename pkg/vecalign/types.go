package vecalign

import "strings"

// GapChar is the symbol written into aligned strings for gap columns.
const GapChar = '-'

// IsGap reports whether c marks a gap column. Both '-' and the MSF style '.'
// are accepted.
func IsGap(c byte) bool {
	return c == '-' || c == '.'
}

// Sequence is an ordered list of residue symbols. Positions are 1-indexed in
// alignment bookkeeping and 0-indexed when passed to a PairFunc.
type Sequence struct {
	ID       string // Identifier from the FASTA header
	Residues string // Residue symbols, one byte per residue
}

// NewSequence creates a sequence and upper cases the given residues.
func NewSequence(id, residues string) Sequence {
	return Sequence{ID: id, Residues: strings.ToUpper(residues)}
}

// Len returns the number of residues in the sequence.
func (s Sequence) Len() int {
	return len(s.Residues)
}

// Table holds one embedding vector per residue (Table[p-1] belongs to
// position p).
type Table [][]float32

// Dimension returns the vector dimension of the table, or 0 if the table is
// empty.
func (t Table) Dimension() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// GapPenalty holds the affine gap costs. A gap of length L costs
// Open + (L-1)*Extend.
type GapPenalty struct {
	Open   float64 `validate:"gte=0"`
	Extend float64 `validate:"gte=0"`
}

// Cost returns the penalty for a gap of the given length.
func (g GapPenalty) Cost(length int) float64 {
	if length <= 0 {
		return 0
	}
	return g.Open + float64(length-1)*g.Extend
}

// Record is a finished pairwise alignment. Aligned1 and Aligned2 have equal
// length; Start1 and Start2 are the 1-indexed positions of the first aligned
// residue in each original sequence (0 for an empty alignment).
type Record struct {
	Seq1, Seq2         Sequence // Original sequences; Residues may be empty when unknown
	Aligned1, Aligned2 string
	Start1, Start2     int
	Score              float64
	Gaps               GapPenalty
	Scorer             string // Scorer or encoder identifier for provenance
}

// NewRecord builds a record from two aligned strings that begin at the first
// residue of their sequences, as in a global or reference alignment. The
// original sequences are left unknown.
func NewRecord(aligned1, aligned2 string) Record {
	rec := Record{
		Aligned1: strings.ToUpper(aligned1),
		Aligned2: strings.ToUpper(aligned2),
	}
	if countResidues(rec.Aligned1) > 0 {
		rec.Start1 = 1
	}
	if countResidues(rec.Aligned2) > 0 {
		rec.Start2 = 1
	}
	return rec
}

// Len returns the number of alignment columns.
func (r Record) Len() int {
	return len(r.Aligned1)
}

// Empty reports whether the record holds no columns.
func (r Record) Empty() bool {
	return len(r.Aligned1) == 0 && len(r.Aligned2) == 0
}

// GapColumns returns the number of columns where either side is a gap.
func (r Record) GapColumns() int {
	n := 0
	for i := 0; i < len(r.Aligned1) && i < len(r.Aligned2); i++ {
		if IsGap(r.Aligned1[i]) || IsGap(r.Aligned2[i]) {
			n++
		}
	}
	return n
}

// Positions maps each column of the aligned string for sequence k (1 or 2)
// to its 1-indexed position in the original sequence. Gap columns map to 0.
func (r Record) Positions(k int) []int {
	aligned, pos := r.Aligned1, r.Start1
	if k == 2 {
		aligned, pos = r.Aligned2, r.Start2
	}
	out := make([]int, len(aligned))
	for i := 0; i < len(aligned); i++ {
		if IsGap(aligned[i]) {
			continue
		}
		out[i] = pos
		pos++
	}
	return out
}

// Ungapped returns the residues of aligned string k with gaps removed.
func (r Record) Ungapped(k int) string {
	aligned := r.Aligned1
	if k == 2 {
		aligned = r.Aligned2
	}
	var sb strings.Builder
	sb.Grow(len(aligned))
	for i := 0; i < len(aligned); i++ {
		if !IsGap(aligned[i]) {
			sb.WriteByte(aligned[i])
		}
	}
	return sb.String()
}

func countResidues(aligned string) int {
	n := 0
	for i := 0; i < len(aligned); i++ {
		if !IsGap(aligned[i]) {
			n++
		}
	}
	return n
}
