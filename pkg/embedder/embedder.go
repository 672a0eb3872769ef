package embedder

import (
	"fmt"
	"math"
	"strings"
)

// Embedder produces one vector per residue of a protein sequence.
type Embedder interface {
	Embed(residues string) ([][]float32, error)
	EmbedBatch(sequences []string) ([][][]float32, error)
	Dimension() int
	ModelInfo() string
}

// StandardResidues is the one-hot alphabet; anything else falls into a
// trailing "unknown" slot.
const StandardResidues = "ACDEFGHIKLMNPQRSTVWY"

// OneHotEmbedder is a baseline encoder: each residue becomes a unit vector
// with a single 1 at its alphabet index. Two residues therefore score 1 under
// cosine similarity when identical and 0 otherwise.
type OneHotEmbedder struct {
	index [256]int
}

// NewOneHotEmbedder creates the baseline embedder.
func NewOneHotEmbedder() *OneHotEmbedder {
	e := &OneHotEmbedder{}
	unknown := len(StandardResidues)
	for i := range e.index {
		e.index[i] = unknown
	}
	for i := 0; i < len(StandardResidues); i++ {
		c := StandardResidues[i]
		e.index[c] = i
		e.index[c-'A'+'a'] = i
	}
	return e
}

// Embed generates the per-residue vectors for a sequence.
func (e *OneHotEmbedder) Embed(residues string) ([][]float32, error) {
	if len(residues) == 0 {
		return nil, fmt.Errorf("cannot embed empty sequence")
	}

	vectors := make([][]float32, len(residues))
	for i := 0; i < len(residues); i++ {
		v := make([]float32, e.Dimension())
		v[e.index[residues[i]]] = 1
		vectors[i] = v
	}
	return vectors, nil
}

// EmbedBatch generates vectors for multiple sequences.
func (e *OneHotEmbedder) EmbedBatch(sequences []string) ([][][]float32, error) {
	out := make([][][]float32, len(sequences))
	for i, s := range sequences {
		vectors, err := e.Embed(s)
		if err != nil {
			return nil, fmt.Errorf("embedding sequence %d: %w", i, err)
		}
		out[i] = vectors
	}
	return out, nil
}

// Dimension returns the embedding dimension: the standard residues plus one
// unknown slot.
func (e *OneHotEmbedder) Dimension() int {
	return len(StandardResidues) + 1
}

// ModelInfo returns model information
func (e *OneHotEmbedder) ModelInfo() string {
	return "onehot-v1"
}

// Normalize scales every vector to unit length in place. Zero vectors are
// left untouched.
func Normalize(vectors [][]float32) {
	for _, v := range vectors {
		l2normalize(v)
	}
}

// Label returns the model identifier stored with a table, marking tables
// whose vectors were scaled to unit length.
func Label(model string, normalized bool) string {
	if normalized {
		return model + "+l2"
	}
	return model
}

// l2normalize normalizes a vector to unit length
func l2normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

// ByName returns the embedder registered under name.
func ByName(name string) (Embedder, error) {
	switch strings.ToLower(name) {
	case "", "onehot", "onehot-v1":
		return NewOneHotEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q", name)
	}
}
