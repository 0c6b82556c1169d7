package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T, root string, opts ...Option) *Validator {
	t.Helper()
	v, err := New(root, opts...)
	require.NoError(t, err)
	return v
}

func TestValidateAdmissiblePath(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	result := v.Validate(filepath.Join(root, "data", "input"))
	assert.True(t, result.Admissible())
	assert.Empty(t, result.Failing())
	assert.False(t, result.Exists, "directory was never created")
}

func TestExistsIsInformationalOnly(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	existing := filepath.Join(root, "present")
	require.NoError(t, os.MkdirAll(existing, 0o755))

	assert.True(t, v.Validate(existing).Exists)
	assert.True(t, v.Validate(filepath.Join(root, "absent")).Admissible())
}

func TestLiteralParentSegmentRejected(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	// The canonical form stays inside root, but the literal ".." segment
	// is rejected anyway.
	candidate := filepath.Join(root, "data") + "/../data/input"
	result := v.Validate(candidate)

	assert.False(t, result.Admissible())
	assert.Contains(t, result.Failing(), RuleNoParentRef)
}

func TestEscapeViaParentSegment(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	result := v.Validate(root + "/../etc")
	assert.Contains(t, result.Failing(), RuleNoParentRef)
	assert.Contains(t, result.Failing(), RuleWithinProject)
}

func TestOutsideRootRejected(t *testing.T) {
	v := newValidator(t, t.TempDir())

	result := v.Validate(filepath.Join(t.TempDir(), "elsewhere"))
	assert.False(t, result.WithinProject)
	assert.Contains(t, result.Failing(), RuleWithinProject)
}

func TestSiblingWithRootPrefixRejected(t *testing.T) {
	// "<root>-evil" shares the root as a string prefix but is not
	// contained in it.
	root := t.TempDir()
	v := newValidator(t, root)

	result := v.Validate(root + "-evil/data")
	assert.False(t, result.WithinProject)
}

func TestRootItselfIsContained(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	assert.True(t, v.Validate(root).WithinProject)
}

func TestSymlinkEscapeDetected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	v := newValidator(t, root)
	result := v.Validate(filepath.Join(link, "data"))
	assert.False(t, result.WithinProject)
}

func TestLengthCeiling(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root, WithMaxLength(len(root)+20))

	ok := v.Validate(filepath.Join(root, "short"))
	assert.True(t, ok.ValidLength)

	long := filepath.Join(root, strings.Repeat("x", 64))
	result := v.Validate(long)
	assert.False(t, result.ValidLength)
	assert.Contains(t, result.Failing(), RuleValidLength)
}

func TestCharacterDenylist(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	for _, c := range []string{"<", ">", ":", `"`, "|", "?", "*"} {
		result := v.Validate(filepath.Join(root, "bad"+c+"name"))
		assert.Falsef(t, result.ValidCharacters, "character %q should be rejected", c)
	}

	result := v.Validate(filepath.Join(root, "un\x00printable"))
	assert.False(t, result.ValidCharacters)
}

func TestValidatePathReturnsTypedError(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	_, err := v.ValidatePath(root + "/../escape")
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Result.Failing(), RuleNoParentRef)
}

func TestValidateAllCapturesPerKeyOutcomes(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	results := v.ValidateAll(map[string]string{
		"good": filepath.Join(root, "data"),
		"bad":  root + "/../etc",
	})

	require.Len(t, results, 2)
	assert.NoError(t, results["good"].Err)
	assert.Error(t, results["bad"].Err)
	assert.True(t, results["good"].Result.Admissible())
}

func TestRulesMapCoversAllRules(t *testing.T) {
	root := t.TempDir()
	v := newValidator(t, root)

	rules := v.Validate(filepath.Join(root, "x")).Rules()
	for _, name := range []string{RuleWithinProject, RuleNoParentRef, RuleValidLength, RuleValidCharacters, RuleExists} {
		_, ok := rules[name]
		assert.Truef(t, ok, "rule %s missing from map", name)
	}
}
