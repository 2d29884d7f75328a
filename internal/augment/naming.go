package augment

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aellingwood/augment/internal/config"
	"golang.org/x/text/unicode/norm"
)

// ErrStemCollision is returned under the "fail" collision policy when two
// source files map to the same output stem.
var ErrStemCollision = errors.New("output stem collision")

// OutputName returns the filename of the i-th augmented variant of stem.
func OutputName(stem string, i int) string {
	return fmt.Sprintf("%s_aug_%d.jpg", stem, i)
}

// Namer assigns output stems to source files and detects sources whose
// stems collide within a run. Stems are compared in Unicode NFC form.
type Namer struct {
	policy   string
	owners   map[string]string // normalised stem → source that owns it
	assigned map[string]string // source → stem handed out
}

// NewNamer creates a Namer applying the given collision policy.
func NewNamer(policy string) *Namer {
	return &Namer{
		policy:   policy,
		owners:   make(map[string]string),
		assigned: make(map[string]string),
	}
}

// Claim returns the stem to use for source's outputs. previous is the path
// of an earlier source that already claimed the same stem, or "" when there
// was no collision. Claiming the same source twice returns the same stem.
func (n *Namer) Claim(source string) (stem, previous string, err error) {
	if s, ok := n.assigned[source]; ok {
		return s, "", nil
	}

	stem = fileStem(source)
	key := norm.NFC.String(stem)
	owner, taken := n.owners[key]
	if !taken {
		n.owners[key] = source
		n.assigned[source] = stem
		return stem, "", nil
	}

	switch n.policy {
	case config.CollisionFail:
		return "", owner, fmt.Errorf("%w: %s and %s both map to %q", ErrStemCollision, owner, source, stem)

	case config.CollisionExtension:
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(source), "."))
		alt := stem + "_" + ext
		if ext == "" {
			alt = stem + "_noext"
		}
		candidate := alt
		for i := 2; ; i++ {
			if _, used := n.owners[norm.NFC.String(candidate)]; !used {
				break
			}
			candidate = fmt.Sprintf("%s%d", alt, i)
		}
		n.owners[norm.NFC.String(candidate)] = source
		n.assigned[source] = candidate
		return candidate, owner, nil

	default: // warn: the later source takes over and overwrites
		n.owners[key] = source
		n.assigned[source] = stem
		return stem, owner, nil
	}
}

// fileStem returns the filename without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}
