package loader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"

	"github.com/perbu/vecalign/pkg/vecalign"
)

// ReadFASTA reads every record of a FASTA file. Residues are upper cased.
func ReadFASTA(path string) ([]vecalign.Sequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	seqs, err := ParseFASTA(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return seqs, nil
}

// ParseFASTA reads FASTA records from r.
func ParseFASTA(r io.Reader) ([]vecalign.Sequence, error) {
	reader := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.Protein))
	scanner := seqio.NewScanner(reader)

	var seqs []vecalign.Sequence
	for scanner.Next() {
		s, ok := scanner.Seq().(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("unexpected sequence type %T", scanner.Seq())
		}
		var sb strings.Builder
		sb.Grow(len(s.Seq))
		for _, l := range s.Seq {
			sb.WriteByte(byte(l))
		}
		seqs = append(seqs, vecalign.NewSequence(s.Name(), sb.String()))
	}
	if err := scanner.Error(); err != nil {
		return nil, err
	}
	return seqs, nil
}

// ReadFirst returns the first record of a FASTA file.
func ReadFirst(path string) (vecalign.Sequence, error) {
	seqs, err := ReadFASTA(path)
	if err != nil {
		return vecalign.Sequence{}, err
	}
	if len(seqs) == 0 {
		return vecalign.Sequence{}, fmt.Errorf("%s: no sequences", path)
	}
	return seqs[0], nil
}

// Find walks root in fsys and returns every file whose name ends in one of
// the suffixes, sorted.
func Find(fsys fs.FS, root string, suffixes ...string) ([]string, error) {
	var paths []string

	err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories
		if d.IsDir() {
			return nil
		}

		for _, suffix := range suffixes {
			if strings.HasSuffix(path, suffix) {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})

	sort.Strings(paths)
	return paths, err
}
