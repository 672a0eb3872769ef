package vecalign

// state tags the three affine-gap DP matrices.
type state uint8

const (
	stateStart state = iota // alignment begins here, no predecessor
	stateMatch              // residue aligned to residue
	stateGap1               // residue of seq1 aligned to a gap in seq2 (X)
	stateGap2               // gap in seq1 aligned to a residue of seq2 (Y)
)

// dpMatrix holds the M, X and Y score matrices and their back-pointers in
// flat row-major arrays of (rows+1)*(cols+1) cells. The predecessor
// coordinates are implied by the state: Match steps to (i-1, j-1), Gap1 to
// (i-1, j) and Gap2 to (i, j-1).
type dpMatrix struct {
	cols    int
	score   [3][]float64
	pointer [3][]state
}

func newDPMatrix(rows, cols int) *dpMatrix {
	n := (rows + 1) * (cols + 1)
	dp := &dpMatrix{cols: cols + 1}
	for s := range dp.score {
		dp.score[s] = make([]float64, n)
		dp.pointer[s] = make([]state, n)
	}
	return dp
}

func (dp *dpMatrix) at(i, j int) int {
	return i*dp.cols + j
}

// Align finds the highest scoring local alignment of seq1 and seq2 with
// affine gap penalties (Smith-Waterman, Gotoh three-state formulation).
//
// Ties between predecessor states are broken Match > Gap1 > Gap2, and gap
// cells prefer extending an open gap over opening a new one. The alignment
// ends at the first maximum found in row-major order (i, then j, then
// Match, Gap1, Gap2). A best score of 0 yields an empty record.
func Align(seq1, seq2 Sequence, scorer Scorer, gaps GapPenalty) (Record, error) {
	const op = "align"
	if seq1.Len() == 0 {
		return Record{}, inputErrorf(op, "seq1 %q is empty", seq1.ID)
	}
	if seq2.Len() == 0 {
		return Record{}, inputErrorf(op, "seq2 %q is empty", seq2.ID)
	}
	if scorer == nil {
		return Record{}, inputErrorf(op, "no scorer")
	}
	if err := gaps.Validate(); err != nil {
		return Record{}, err
	}
	score, err := scorer.Bind(seq1, seq2)
	if err != nil {
		return Record{}, err
	}

	m, n := seq1.Len(), seq2.Len()
	dp := fill(m, n, score, gaps)

	bestState, bestI, bestJ, best := stateStart, 0, 0, 0.0
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			c := dp.at(i, j)
			for s := stateMatch; s <= stateGap2; s++ {
				if v := dp.score[s-1][c]; v > best {
					best, bestState, bestI, bestJ = v, s, i, j
				}
			}
		}
	}

	rec := Record{
		Seq1:   seq1,
		Seq2:   seq2,
		Score:  best,
		Gaps:   gaps,
		Scorer: scorer.Name(),
	}
	if best == 0 {
		return rec, nil
	}

	rec.Aligned1, rec.Aligned2, rec.Start1, rec.Start2 = traceback(dp, seq1.Residues, seq2.Residues, bestState, bestI, bestJ)
	return rec, nil
}

// fill populates the three matrices. Row 0 and column 0 stay zero.
func fill(m, n int, score PairFunc, gaps GapPenalty) *dpMatrix {
	dp := newDPMatrix(m, n)
	M, X, Y := dp.score[0], dp.score[1], dp.score[2]
	pM, pX, pY := dp.pointer[0], dp.pointer[1], dp.pointer[2]
	open, ext := gaps.Open, gaps.Extend

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			c := dp.at(i, j)

			// Match: best of the three states at (i-1, j-1), or a fresh start.
			d := dp.at(i-1, j-1)
			prev, from := M[d], stateMatch
			if X[d] > prev {
				prev, from = X[d], stateGap1
			}
			if Y[d] > prev {
				prev, from = Y[d], stateGap2
			}
			if prev <= 0 {
				prev, from = 0, stateStart
			}
			if v := prev + score(i-1, j-1); v > 0 {
				M[c], pM[c] = v, from
			}

			// Gap1: seq1[i] against a gap, coming from (i-1, j).
			u := dp.at(i-1, j)
			v, from := X[u]-ext, stateGap1
			if o := M[u] - open; o > v {
				v, from = o, stateMatch
			}
			if v > 0 {
				X[c], pX[c] = v, from
			}

			// Gap2: a gap against seq2[j], coming from (i, j-1).
			l := dp.at(i, j-1)
			v, from = Y[l]-ext, stateGap2
			if o := M[l] - open; o > v {
				v, from = o, stateMatch
			}
			if v > 0 {
				Y[c], pY[c] = v, from
			}
		}
	}
	return dp
}

// traceback walks back from the best cell until the alignment start and
// returns the aligned strings with the 1-indexed start positions.
func traceback(dp *dpMatrix, s1, s2 string, s state, i, j int) (string, string, int, int) {
	a1 := make([]byte, 0, i+j)
	a2 := make([]byte, 0, i+j)

	for s != stateStart && i > 0 && j > 0 {
		next := dp.pointer[s-1][dp.at(i, j)]
		switch s {
		case stateMatch:
			a1 = append(a1, s1[i-1])
			a2 = append(a2, s2[j-1])
			i--
			j--
		case stateGap1:
			a1 = append(a1, s1[i-1])
			a2 = append(a2, GapChar)
			i--
		case stateGap2:
			a1 = append(a1, GapChar)
			a2 = append(a2, s2[j-1])
			j--
		}
		s = next
	}

	reverse(a1)
	reverse(a2)
	return string(a1), string(a2), i + 1, j + 1
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// identity returns the percentage of columns whose residues are identical,
// ignoring case. Gap columns count towards the length but never match.
func identity(aligned1, aligned2 string) float64 {
	if len(aligned1) == 0 || len(aligned1) != len(aligned2) {
		return 0
	}
	same := 0
	for i := 0; i < len(aligned1); i++ {
		a, b := aligned1[i], aligned2[i]
		if !IsGap(a) && toUpper(a) == toUpper(b) {
			same++
		}
	}
	return 100 * float64(same) / float64(len(aligned1))
}

// Identity returns the percentage of identical columns in the alignment.
func (r Record) Identity() float64 {
	return identity(r.Aligned1, r.Aligned2)
}
