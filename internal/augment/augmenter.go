// Package augment generates randomly transformed copies of images for
// dataset augmentation. Each variant is a rotation about the image centre,
// a uniform scale and a translation, resampled with mirrored borders and
// written as JPEG.
package augment

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/aellingwood/augment/internal/config"
	"github.com/aellingwood/augment/internal/logging"
	"github.com/disintegration/imaging"

	// Additional input formats for image.Decode.
	_ "github.com/gen2brain/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Augmenter writes augmented variants of source images into the configured
// output directory. It processes one image at a time and is not safe for
// concurrent use.
type Augmenter struct {
	cfg      *config.Config
	sampler  *Sampler
	seed     int64
	names    *Namer
	manifest *Manifest // nil unless enabled
	log      *slog.Logger
}

// Result describes the outcome of augmenting one source file.
type Result struct {
	Source string
	Width  int
	Height int
	// Skipped is set when the source could not be decoded; Err holds the
	// decode error.
	Skipped bool
	Err     error
	// CollidedWith names an earlier source that claimed the same stem.
	CollidedWith string
	Outputs      []Output
}

// Output describes a single written variant.
type Output struct {
	Index  int
	Path   string
	Params Params
}

// Option customises an Augmenter.
type Option func(*Augmenter)

// WithLogger sets the logger. The default is logging.L().
func WithLogger(l *slog.Logger) Option {
	return func(a *Augmenter) { a.log = l }
}

// WithRand replaces the seed-derived random source.
func WithRand(rng *rand.Rand) Option {
	return func(a *Augmenter) { a.sampler = NewSampler(rng, a.cfg.Transform) }
}

// New creates an Augmenter for cfg. The random source is seeded from
// cfg.Seed unless WithRand is given.
func New(cfg *config.Config, opts ...Option) (*Augmenter, error) {
	rng, seed := NewRand(cfg.Seed)
	a := &Augmenter{
		cfg:     cfg,
		sampler: NewSampler(rng, cfg.Transform),
		seed:    seed,
		names:   NewNamer(cfg.Collision),
		log:     logging.L(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if cfg.Manifest {
		m, err := LoadManifest(filepath.Join(cfg.OutputDir, ManifestFile))
		if err != nil {
			return nil, err
		}
		m.SetSeed(seed)
		a.manifest = m
	}
	return a, nil
}

// Seed returns the seed the random source was created from.
func (a *Augmenter) Seed() int64 {
	return a.seed
}

// Manifest returns the run manifest, or nil when disabled.
func (a *Augmenter) Manifest() *Manifest {
	return a.manifest
}

// AugmentFile writes cfg.Count variants of the image at path, named
// {stem}_aug_{i}.jpg. A source that cannot be decoded is logged and
// reported as skipped with a nil error; any other failure is returned.
func (a *Augmenter) AugmentFile(path string) (*Result, error) {
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	res := &Result{Source: path}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		a.log.Warn("failed to read image", "path", path, "error", err)
		res.Skipped = true
		res.Err = err
		return res, nil
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	res.Width, res.Height = w, h
	a.log.Info("image dimensions", "path", path, "height", h, "width", w)

	stem, previous, err := a.names.Claim(path)
	if err != nil {
		return nil, err
	}
	if previous != "" {
		res.CollidedWith = previous
		a.log.Warn("stem collision", "path", path, "previous", previous, "stem", stem, "policy", a.cfg.Collision)
		// The earlier source's outputs are about to be overwritten.
		if a.manifest != nil && a.cfg.Collision == config.CollisionWarn {
			a.manifest.Remove(previous)
		}
	}

	for i := 0; i < a.cfg.Count; i++ {
		p := a.sampler.Sample(w, h)
		out := Warp(img, Matrix(p, w, h))

		outPath := filepath.Join(a.cfg.OutputDir, OutputName(stem, i))
		if err := encodeJPEG(out, outPath, a.cfg.Quality); err != nil {
			return nil, fmt.Errorf("writing %s: %w", outPath, err)
		}
		a.log.Debug("transform", "path", outPath, "angle", p.Angle, "scale", p.Scale, "tx", p.TX, "ty", p.TY)
		a.log.Info("saved augmented image", "path", outPath)

		res.Outputs = append(res.Outputs, Output{Index: i, Path: outPath, Params: p})
	}

	if a.manifest != nil {
		if err := a.record(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Flush persists the manifest, if enabled.
func (a *Augmenter) Flush() error {
	if a.manifest == nil {
		return nil
	}
	if err := a.manifest.Save(); err != nil {
		return fmt.Errorf("saving manifest: %w", err)
	}
	return nil
}

func (a *Augmenter) record(res *Result) error {
	hash, err := HashFile(res.Source)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", res.Source, err)
	}
	entry := &ManifestEntry{
		ContentHash: hash,
		Width:       res.Width,
		Height:      res.Height,
		Outputs:     make([]ManifestOutput, 0, len(res.Outputs)),
	}
	for _, o := range res.Outputs {
		entry.Outputs = append(entry.Outputs, ManifestOutput{
			Index:    o.Index,
			Filename: filepath.Base(o.Path),
			Params:   o.Params,
		})
	}
	a.manifest.Record(res.Source, entry)
	return nil
}

// encodeJPEG writes img to outPath, replacing any existing file.
func encodeJPEG(img image.Image, outPath string, quality int) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encoding jpeg: %w", err)
	}
	return f.Close()
}
