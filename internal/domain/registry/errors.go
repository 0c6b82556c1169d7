package registry

import (
	"fmt"
	"strings"

	"github.com/fieldlens/backend/internal/domain/validate"
)

// EnvironmentError reports the first required environment variable found
// unset during registry construction.
type EnvironmentError struct {
	Variable string
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("required environment variable not set: %s", e.Variable)
}

// UnknownKeyError reports a lookup of a key absent from the layout.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown path key: %s", e.Key)
}

// PathError reports an inadmissible resolved path, naming the key and every
// failing rule.
type PathError struct {
	Key    string
	Path   string
	Result validate.Result
}

func (e *PathError) Error() string {
	return fmt.Sprintf("inadmissible path for key %q: %s (failing rules: %s)",
		e.Key, e.Path, strings.Join(e.Result.Failing(), ", "))
}

// DirectoryError reports a provisioning failure for a single key. Failures
// across keys are collected into an aggregate rather than aborting the run.
type DirectoryError struct {
	Key  string
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("failed to provision directory for key %q (%s): %v", e.Key, e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }
