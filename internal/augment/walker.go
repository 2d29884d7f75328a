package augment

import (
	"fmt"
	"os"
	"path/filepath"
)

// Summary totals a directory run.
type Summary struct {
	Processed  int // regular files handed to AugmentFile
	Skipped    int // files that could not be decoded
	Written    int // augmented images written
	Collisions int // sources whose stem was already claimed
}

func (s *Summary) add(r *Result) {
	s.Processed++
	if r.Skipped {
		s.Skipped++
	}
	if r.CollidedWith != "" {
		s.Collisions++
	}
	s.Written += len(r.Outputs)
}

// AugmentDir augments every regular file directly inside inputDir.
// Subdirectories and other non-regular entries are skipped without
// recursion. Files are visited in filename order. The first error other
// than an undecodable image aborts the walk.
func (a *Augmenter) AugmentDir(inputDir string) (*Summary, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("reading input directory: %w", err)
	}

	sum := &Summary{}
	for _, e := range entries {
		path := filepath.Join(inputDir, e.Name())
		// Stat rather than e.Type() so symlinks to files count as files.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		a.log.Info("processing image", "path", path)
		res, err := a.AugmentFile(path)
		if err != nil {
			return sum, err
		}
		sum.add(res)
	}

	if err := a.Flush(); err != nil {
		return sum, err
	}

	a.log.Info("run complete",
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"written", sum.Written,
		"collisions", sum.Collisions,
	)
	return sum, nil
}
