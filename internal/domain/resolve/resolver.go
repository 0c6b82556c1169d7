// Package resolve expands ${NAME} references in layout templates.
//
// A reference is looked up first among the logical keys resolved so far,
// then in the process environment. Resolution is a single pass in layout
// declaration order, so a dependency must be declared before anything that
// references it; no topological sort is attempted.
package resolve

import (
	"fmt"
	"regexp"
)

var (
	refPattern = regexp.MustCompile(`\$\{([^${}]+)\}`)
	envShape   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// MissingEnvError reports a reference to an unset environment variable.
type MissingEnvError struct {
	Variable string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variable not set: %s", e.Variable)
}

// UnresolvedRefError reports a reference to a logical key that is not
// declared or not yet resolved.
type UnresolvedRefError struct {
	Reference string
}

func (e *UnresolvedRefError) Error() string {
	return fmt.Sprintf("unresolved reference: ${%s}", e.Reference)
}

// LookupEnv matches os.LookupEnv.
type LookupEnv func(name string) (string, bool)

// Resolver holds the two-tier namespace a template expands against:
// already-resolved logical keys and environment variables.
type Resolver struct {
	env  LookupEnv
	keys map[string]string
}

// New creates a resolver with an empty key namespace.
func New(env LookupEnv) *Resolver {
	return &Resolver{env: env, keys: make(map[string]string)}
}

// Bind records a resolved logical key so later templates can reference it.
func (r *Resolver) Bind(key, value string) {
	r.keys[key] = value
}

// Resolved returns the value a key resolved to, if bound.
func (r *Resolver) Resolved(key string) (string, bool) {
	v, ok := r.keys[key]
	return v, ok
}

// Expand substitutes every ${NAME} reference in template. It is purely
// textual: one brace level, no arithmetic, no conditionals.
func (r *Resolver) Expand(template string) (string, error) {
	var failure error
	expanded := refPattern.ReplaceAllStringFunc(template, func(match string) string {
		ref := match[2 : len(match)-1]

		if v, ok := r.keys[ref]; ok {
			return v
		}
		if v, ok := r.env(ref); ok {
			return v
		}

		if failure == nil {
			// A reference shaped like an environment variable gets the
			// env-specific error so the operator knows what to export.
			if envShape.MatchString(ref) {
				failure = &MissingEnvError{Variable: ref}
			} else {
				failure = &UnresolvedRefError{Reference: ref}
			}
		}
		return match
	})
	if failure != nil {
		return "", failure
	}
	return expanded, nil
}

// LeadingRef returns the reference name at the very start of template, if
// the template begins with one. The registry uses it to derive an entry's
// base directory.
func LeadingRef(template string) (string, bool) {
	loc := refPattern.FindStringIndex(template)
	if loc == nil || loc[0] != 0 {
		return "", false
	}
	return template[loc[0]+2 : loc[1]-1], true
}
