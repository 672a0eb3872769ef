package embedder

import (
	"bufio"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/perbu/vecalign/pkg/vecalign"
)

// Data is the on-disk form of one sequence's embedding table.
type Data struct {
	ID        string      // Sequence identifier
	Residues  string      // Residues the vectors belong to (may be empty for text tables)
	Vectors   [][]float32 // One vector per residue, in sequence order
	ModelInfo string      // Model name/version used
	Dimension int         // Embedding vector dimension
}

// Validate checks the table shape and, when residues are recorded, the
// vector count.
func (d *Data) Validate() error {
	if len(d.Vectors) == 0 {
		return fmt.Errorf("embeddings for %q: no vectors", d.ID)
	}
	if d.Residues != "" && len(d.Vectors) != len(d.Residues) {
		return fmt.Errorf("embeddings for %q: %d vectors for %d residues", d.ID, len(d.Vectors), len(d.Residues))
	}
	dim := len(d.Vectors[0])
	if d.Dimension != 0 && d.Dimension != dim {
		return fmt.Errorf("embeddings for %q: header dimension %d, vectors have %d", d.ID, d.Dimension, dim)
	}
	for i, v := range d.Vectors {
		if len(v) != dim {
			return fmt.Errorf("embeddings for %q: vector %d has dimension %d, want %d", d.ID, i+1, len(v), dim)
		}
	}
	return nil
}

// Table returns the vectors as an alignment embedding table.
func (d *Data) Table() vecalign.Table {
	return vecalign.Table(d.Vectors)
}

// Save writes d to path as gob. The file is written to a temporary name and
// renamed into place so an interrupted write never leaves a truncated table.
func Save(path string, d *Data) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(d); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(path+".tmp", path)
}

// Load reads a gob table written by Save.
func Load(path string) (*Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var d Data
	if err := gob.NewDecoder(file).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadText reads a whitespace-delimited matrix with one row per residue, the
// layout numpy's savetxt produces. Lines starting with '#' are skipped.
func LoadText(path string) (*Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := &Data{ID: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), ModelInfo: "text"}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		v := make([]float32, len(fields))
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, line, err)
			}
			v[i] = float32(x)
		}
		d.Vectors = append(d.Vectors, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.Dimension = len(d.Vectors[0])
	return d, nil
}

// LoadTable loads a table, choosing the format from the file extension:
// ".gob" for Save output, anything else as a text matrix.
func LoadTable(path string) (*Data, error) {
	if strings.EqualFold(filepath.Ext(path), ".gob") {
		return Load(path)
	}
	return LoadText(path)
}

// PathFor returns the gob path for a sequence inside an embeddings directory.
func PathFor(dir, id string) string {
	return filepath.Join(dir, id+".gob")
}

// Resolve returns the embedding table for seq. An explicit path wins;
// otherwise the table stored under dir for the sequence id is used, and if
// none exists the fallback embedder generates one. The second return value
// names the model that produced the table.
func Resolve(path, dir string, seq vecalign.Sequence, fallback Embedder) (vecalign.Table, string, error) {
	if path == "" && dir != "" {
		candidate := PathFor(dir, seq.ID)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", err
		}
	}

	if path != "" {
		d, err := LoadTable(path)
		if err != nil {
			return nil, "", err
		}
		if d.Residues != "" && !strings.EqualFold(d.Residues, seq.Residues) {
			return nil, "", fmt.Errorf("embeddings %s were computed for a different sequence than %q", path, seq.ID)
		}
		return d.Table(), d.ModelInfo, nil
	}

	if fallback == nil {
		return nil, "", fmt.Errorf("no embeddings for %q", seq.ID)
	}
	vectors, err := fallback.Embed(seq.Residues)
	if err != nil {
		return nil, "", fmt.Errorf("embedding %q: %w", seq.ID, err)
	}
	return vectors, fallback.ModelInfo(), nil
}
