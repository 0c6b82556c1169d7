// Package validate checks candidate paths against the fixed security rule
// set: containment under a root, no parent-directory segments, a length
// ceiling, and a character denylist. Existence is reported but never causes
// rejection on its own.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Rule names, as reported in results and errors.
const (
	RuleWithinProject   = "is_within_project"
	RuleNoParentRef     = "no_parent_reference"
	RuleValidLength     = "valid_length"
	RuleValidCharacters = "valid_characters"
	RuleExists          = "exists"
)

// DefaultMaxLength is the default path length ceiling, matching common OS
// limits.
const DefaultMaxLength = 4096

// deniedChars are rejected everywhere; slashes stay legal as separators.
const deniedChars = `<>:"|?*`

// Result holds the outcome of every rule for one candidate path.
type Result struct {
	WithinProject   bool
	NoParentRef     bool
	ValidLength     bool
	ValidCharacters bool
	Exists          bool
}

// Admissible reports whether all rejection rules passed. Existence is
// informational and does not count.
func (r Result) Admissible() bool {
	return r.WithinProject && r.NoParentRef && r.ValidLength && r.ValidCharacters
}

// Failing returns the names of the rejection rules that failed.
func (r Result) Failing() []string {
	var rules []string
	if !r.WithinProject {
		rules = append(rules, RuleWithinProject)
	}
	if !r.NoParentRef {
		rules = append(rules, RuleNoParentRef)
	}
	if !r.ValidLength {
		rules = append(rules, RuleValidLength)
	}
	if !r.ValidCharacters {
		rules = append(rules, RuleValidCharacters)
	}
	return rules
}

// Rules returns every rule outcome keyed by rule name.
func (r Result) Rules() map[string]bool {
	return map[string]bool{
		RuleWithinProject:   r.WithinProject,
		RuleNoParentRef:     r.NoParentRef,
		RuleValidLength:     r.ValidLength,
		RuleValidCharacters: r.ValidCharacters,
		RuleExists:          r.Exists,
	}
}

// Error is returned by ValidatePath when a candidate is inadmissible. It
// carries the full result so callers see every violation at once.
type Error struct {
	Path   string
	Result Result
}

func (e *Error) Error() string {
	return fmt.Sprintf("path validation failed for %s: failing rules %v", e.Path, e.Result.Failing())
}

// BatchResult is one entry of a batch validation: either a result or the
// construction error that prevented producing one.
type BatchResult struct {
	Result Result
	Err    error
}

// Validator evaluates the rule set against a fixed root.
type Validator struct {
	root      string // canonical
	maxLength int
}

// Option configures a Validator.
type Option func(*Validator)

// WithMaxLength overrides the path length ceiling.
func WithMaxLength(n int) Option {
	return func(v *Validator) { v.maxLength = n }
}

// New creates a validator whose containment root is root. The root is
// canonicalized once up front.
func New(root string, opts ...Option) (*Validator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid validation root %q: %w", root, err)
	}
	v := &Validator{root: canonicalize(abs), maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Root returns the canonical containment root.
func (v *Validator) Root() string { return v.root }

// Validate evaluates every rule against candidate. All rules are computed
// independently; nothing short-circuits.
func (v *Validator) Validate(candidate string) Result {
	return Result{
		WithinProject:   v.withinRoot(candidate),
		NoParentRef:     noParentRef(candidate),
		ValidLength:     len(candidate) <= v.maxLength,
		ValidCharacters: validCharacters(candidate),
		Exists:          exists(candidate),
	}
}

// ValidatePath validates a single candidate and returns a typed error when
// it is inadmissible.
func (v *Validator) ValidatePath(candidate string) (Result, error) {
	result := v.Validate(candidate)
	if !result.Admissible() {
		return result, &Error{Path: candidate, Result: result}
	}
	return result, nil
}

// ValidateAll validates a keyed set of candidates, capturing per-key errors
// instead of aborting, so callers can report partial success.
func (v *Validator) ValidateAll(candidates map[string]string) map[string]BatchResult {
	results := make(map[string]BatchResult, len(candidates))
	for key, candidate := range candidates {
		result, err := v.ValidatePath(candidate)
		results[key] = BatchResult{Result: result, Err: err}
	}
	return results
}

// withinRoot checks segment-wise containment of the canonicalized candidate
// under the canonical root. Comparing whole segments rejects siblings like
// "<root>-evil" that a string prefix check would accept.
func (v *Validator) withinRoot(candidate string) bool {
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return false
	}
	canon := canonicalize(abs)
	if canon == v.root {
		return true
	}
	return strings.HasPrefix(canon, v.root+string(filepath.Separator))
}

// noParentRef checks the unresolved segment sequence: a segment literally
// named ".." is rejected even when canonicalization would neutralize it.
func noParentRef(candidate string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(candidate), "/") {
		if segment == ".." {
			return false
		}
	}
	return true
}

func validCharacters(candidate string) bool {
	for _, r := range candidate {
		if !unicode.IsPrint(r) {
			return false
		}
		if strings.ContainsRune(deniedChars, r) {
			return false
		}
	}
	return true
}

func exists(candidate string) bool {
	_, err := os.Stat(candidate)
	return err == nil
}

// canonicalize resolves symlinks on the longest existing prefix of path and
// rejoins the remainder, so paths that do not exist yet still canonicalize.
// The input must be absolute.
func canonicalize(path string) string {
	p := filepath.Clean(path)
	var suffix string
	for {
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			return filepath.Join(resolved, suffix)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(p, suffix)
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		p = parent
	}
}
