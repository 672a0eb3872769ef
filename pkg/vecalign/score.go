package vecalign

import (
	"fmt"
	"math"
	"strings"

	"github.com/biogo/biogo/align/matrix"
	"github.com/biogo/biogo/alphabet"
)

// PairFunc scores residue i of the first bound sequence against residue j of
// the second (both 0-indexed).
type PairFunc func(i, j int) float64

// Scorer produces residue-pair scores for a pair of sequences. Bind is called
// once per alignment so that all per-sequence work (norms, symbol indexes)
// happens before the DP loop.
type Scorer interface {
	Bind(seq1, seq2 Sequence) (PairFunc, error)
	Name() string
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1. Vectors of different length, or with a
// zero norm, score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Embedding scores residues by the cosine similarity of their embedding
// vectors.
type Embedding struct {
	Table1, Table2 Table
	Encoder        string // Name of the model that produced the tables
}

// NewEmbedding creates an embedding scorer over two per-residue tables.
func NewEmbedding(t1, t2 Table, encoder string) *Embedding {
	return &Embedding{Table1: t1, Table2: t2, Encoder: encoder}
}

// Name returns the scorer identifier, including the encoder when known.
func (e *Embedding) Name() string {
	if e.Encoder == "" {
		return "cosine"
	}
	return "cosine/" + e.Encoder
}

// Bind validates both tables against their sequences and precomputes the
// per-position norms.
func (e *Embedding) Bind(seq1, seq2 Sequence) (PairFunc, error) {
	if err := checkTable("embedding scorer", "seq1", seq1, e.Table1); err != nil {
		return nil, err
	}
	if err := checkTable("embedding scorer", "seq2", seq2, e.Table2); err != nil {
		return nil, err
	}
	d1, d2 := e.Table1.Dimension(), e.Table2.Dimension()
	if d1 != d2 {
		return nil, inputErrorf("embedding scorer", "dimension mismatch: seq1 vectors have %d values, seq2 vectors have %d", d1, d2)
	}

	t1, t2 := e.Table1, e.Table2
	n1, n2 := norms(t1), norms(t2)

	return func(i, j int) float64 {
		if n1[i] == 0 || n2[j] == 0 {
			return 0
		}
		a, b := t1[i], t2[j]
		var dot float64
		for k := range a {
			dot += float64(a[k]) * float64(b[k])
		}
		return dot / (n1[i] * n2[j])
	}, nil
}

func checkTable(op, which string, seq Sequence, t Table) error {
	if len(t) != seq.Len() {
		return inputErrorf(op, "%s %q has %d residues but %d embedding vectors", which, seq.ID, seq.Len(), len(t))
	}
	dim := t.Dimension()
	if dim == 0 {
		return inputErrorf(op, "%s %q has empty embedding vectors", which, seq.ID)
	}
	for p, v := range t {
		if len(v) != dim {
			return inputErrorf(op, "%s %q: vector %d has dimension %d, want %d", which, seq.ID, p+1, len(v), dim)
		}
	}
	return nil
}

func norms(t Table) []float64 {
	out := make([]float64, len(t))
	for i, v := range t {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		out[i] = math.Sqrt(sum)
	}
	return out
}

// DefaultUnknownScore is used for symbol pairs missing from a substitution
// table.
const DefaultUnknownScore = -4

// Matrix scores residues with a symmetric substitution table.
type Matrix struct {
	name    string
	index   [256]int
	table   [][]int
	unknown float64
}

// NewMatrix builds a matrix scorer. table[i][j] is the score of alphabet[i]
// against alphabet[j]; symbols are matched case-insensitively. Pairs with a
// symbol outside the alphabet score unknown.
func NewMatrix(name, alpha string, table [][]int, unknown float64) (*Matrix, error) {
	for i, row := range table {
		if len(row) != len(table) {
			return nil, fmt.Errorf("matrix %s: row %d has %d columns, want %d", name, i, len(row), len(table))
		}
	}
	for i := range table {
		for j := 0; j < i; j++ {
			if table[i][j] != table[j][i] {
				return nil, fmt.Errorf("matrix %s: not symmetric at (%d, %d)", name, i, j)
			}
		}
	}

	m := &Matrix{name: name, table: table, unknown: unknown}
	for i := range m.index {
		m.index[i] = -1
	}
	for i := 0; i < len(alpha) && i < len(table); i++ {
		c := alpha[i]
		m.index[c] = i
		m.index[toUpper(c)] = i
		m.index[toLower(c)] = i
	}
	return m, nil
}

// MustMatrix is like NewMatrix but panics on error.
func MustMatrix(name, alpha string, table [][]int, unknown float64) *Matrix {
	m, err := NewMatrix(name, alpha, table, unknown)
	if err != nil {
		panic(err)
	}
	return m
}

// NewIdentityMatrix builds a table that scores match for identical symbols and
// mismatch otherwise. Symbols outside alpha also score mismatch.
func NewIdentityMatrix(alpha string, match, mismatch int) *Matrix {
	table := make([][]int, len(alpha))
	for i := range table {
		table[i] = make([]int, len(alpha))
		for j := range table[i] {
			if i == j {
				table[i][j] = match
			} else {
				table[i][j] = mismatch
			}
		}
	}
	return MustMatrix("identity", strings.ToUpper(alpha), table, float64(mismatch))
}

// BLOSUM45 returns a scorer over the BLOSUM45 table.
func BLOSUM45() *Matrix {
	return MustMatrix("blosum45", alphabet.Protein.Letters(), matrix.BLOSUM45, DefaultUnknownScore)
}

// BLOSUM62 returns a scorer over the BLOSUM62 table.
func BLOSUM62() *Matrix {
	return MustMatrix("blosum62", alphabet.Protein.Letters(), matrix.BLOSUM62, DefaultUnknownScore)
}

// Name returns the matrix identifier.
func (m *Matrix) Name() string {
	return m.name
}

// Score looks up a single symbol pair.
func (m *Matrix) Score(a, b byte) float64 {
	i, j := m.index[a], m.index[b]
	if i < 0 || j < 0 {
		return m.unknown
	}
	return float64(m.table[i][j])
}

// Bind indexes both sequences so that each lookup in the DP loop is O(1).
func (m *Matrix) Bind(seq1, seq2 Sequence) (PairFunc, error) {
	idx1, idx2 := m.codes(seq1.Residues), m.codes(seq2.Residues)
	table, unknown := m.table, m.unknown
	return func(i, j int) float64 {
		a, b := idx1[i], idx2[j]
		if a < 0 || b < 0 {
			return unknown
		}
		return float64(table[a][b])
	}, nil
}

func (m *Matrix) codes(residues string) []int {
	out := make([]int, len(residues))
	for i := 0; i < len(residues); i++ {
		out[i] = m.index[residues[i]]
	}
	return out
}

// ScorerByName selects a scorer from its configuration name. The tables are
// only used by the cosine scorer.
func ScorerByName(name string, t1, t2 Table, encoder string) (Scorer, error) {
	switch strings.ToLower(name) {
	case "cosine", "embedding":
		return NewEmbedding(t1, t2, encoder), nil
	case "blosum45":
		return BLOSUM45(), nil
	case "blosum62":
		return BLOSUM62(), nil
	default:
		return nil, inputErrorf("scorer", "unknown scorer %q (want cosine, blosum45 or blosum62)", name)
	}
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}
