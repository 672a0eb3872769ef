package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/perbu/vecalign/pkg/config"
	"github.com/perbu/vecalign/pkg/vecalign"
)

// Manifest describes a batch of pairwise alignments.
type Manifest struct {
	GapOpen       *float64 `yaml:"gap_open" validate:"omitempty,gte=0"`
	GapExtend     *float64 `yaml:"gap_extend" validate:"omitempty,gte=0"`
	Scorer        string   `yaml:"scorer" validate:"omitempty,oneof=cosine embedding blosum45 blosum62"`
	EmbeddingsDir string   `yaml:"embeddings_dir"`
	Workers       int      `yaml:"workers" validate:"gte=0"`
	Pairs         []Pair   `yaml:"pairs" validate:"required,min=1,dive"`

	dir string
}

// Pair is one alignment job. Paths are relative to the manifest file.
type Pair struct {
	Name      string `yaml:"name"`
	Seq1      string `yaml:"seq1" validate:"required"`
	Seq2      string `yaml:"seq2" validate:"required"`
	Emb1      string `yaml:"emb1"`
	Emb2      string `yaml:"emb2"`
	Reference string `yaml:"reference"`
	RefID1    string `yaml:"ref_id1"`
	RefID2    string `yaml:"ref_id2"`
	Output    string `yaml:"output"`
}

var validate = validator.New()

// LoadManifest reads a YAML manifest. Settings the manifest leaves out are
// taken from defaults, and relative paths are resolved against the
// manifest's directory.
func LoadManifest(path string, defaults *config.Config) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)

	if err := m.prepare(defaults); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// Single builds a one-pair manifest from configuration, for command-line
// use. Paths are used as given.
func Single(cfg *config.Config, p Pair) (*Manifest, error) {
	m := &Manifest{Workers: 1, Pairs: []Pair{p}}
	if err := m.prepare(cfg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) prepare(defaults *config.Config) error {
	if err := validate.Struct(m); err != nil {
		return err
	}

	if defaults != nil {
		if m.GapOpen == nil {
			m.GapOpen = &defaults.GapOpen
		}
		if m.GapExtend == nil {
			m.GapExtend = &defaults.GapExtend
		}
		if m.Scorer == "" {
			m.Scorer = defaults.Scorer
		}
		if m.EmbeddingsDir == "" {
			m.EmbeddingsDir = defaults.EmbeddingsDir
		}
		if m.Workers == 0 {
			m.Workers = defaults.Workers
		}
	}
	if m.GapOpen == nil || m.GapExtend == nil {
		return fmt.Errorf("gap penalties not set")
	}
	if m.Scorer == "" {
		m.Scorer = "cosine"
	}
	if m.Workers == 0 {
		m.Workers = 1
	}

	m.EmbeddingsDir = m.resolve(m.EmbeddingsDir)
	for i := range m.Pairs {
		p := &m.Pairs[i]
		p.Seq1 = m.resolve(p.Seq1)
		p.Seq2 = m.resolve(p.Seq2)
		p.Emb1 = m.resolve(p.Emb1)
		p.Emb2 = m.resolve(p.Emb2)
		p.Reference = m.resolve(p.Reference)
		p.Output = m.resolve(p.Output)
		if p.Name == "" {
			p.Name = fmt.Sprintf("pair%d", i+1)
		}
	}
	return nil
}

func (m *Manifest) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}

// Gaps returns the manifest's gap penalties.
func (m *Manifest) Gaps() vecalign.GapPenalty {
	return vecalign.GapPenalty{Open: *m.GapOpen, Extend: *m.GapExtend}
}
