// Package registry resolves the declarative path layout into a validated,
// immutable set of directories and serves lookups for the life of the
// process.
//
// A registry is built in one shot: required environment variables are
// checked in order, every template is expanded in declaration order, and
// every resolved path is validated. Any failure means no registry; a
// partially built one is never exposed. After Build returns, the resolved
// map is immutable and safe for concurrent reads.
package registry

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/fieldlens/backend/internal/domain/layout"
	"github.com/fieldlens/backend/internal/domain/resolve"
	"github.com/fieldlens/backend/internal/domain/validate"
	"github.com/fieldlens/backend/internal/infrastructure/monitoring"
	"github.com/fieldlens/backend/internal/logging"
	"github.com/fieldlens/backend/internal/shared/paths"
)

// ResolvedPath is one fully resolved layout entry.
//
// Absolute always equals Base joined with Relative, and no component of
// Relative is "..".
type ResolvedPath struct {
	Absolute   string
	Relative   string
	Base       string
	Components []string
}

// Options configures Build.
type Options struct {
	// Layout to resolve. Defaults to layout.Default().
	Layout *layout.Layout
	// Env is the environment lookup. Defaults to os.LookupEnv.
	Env resolve.LookupEnv
	// MaxPathLength overrides the validator's length ceiling.
	MaxPathLength int
	// DirMode is the permission mode applied by EnsureDirectories.
	// Defaults to 0755.
	DirMode os.FileMode
	// Logger defaults to a no-op logger.
	Logger *logging.Logger
	// Metrics is optional.
	Metrics *monitoring.Metrics
}

// Registry holds the resolved, validated path set.
type Registry struct {
	layout     *layout.Layout
	resolved   map[string]ResolvedPath
	root       string
	validators map[string]*validate.Validator // keyed by base
	dirMode    os.FileMode
	log        *logging.Logger
	metrics    *monitoring.Metrics
}

// Build constructs a registry from opts. On any error no registry is
// returned; resolver errors surface as typed resolve errors, and validation
// failures are collected across all keys into one aggregate so the layout
// author sees every violation at once.
func Build(opts Options) (*Registry, error) {
	if opts.Layout == nil {
		opts.Layout = layout.Default()
	}
	if opts.Env == nil {
		opts.Env = os.LookupEnv
	}
	if opts.DirMode == 0 {
		opts.DirMode = 0o755
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	for _, name := range paths.RequiredEnv {
		if _, ok := opts.Env(name); !ok {
			return nil, &EnvironmentError{Variable: name}
		}
	}
	projectRoot, _ := opts.Env("PROJECT_ROOT")
	projectRoot = filepath.Clean(projectRoot)

	r := &Registry{
		layout:     opts.Layout,
		resolved:   make(map[string]ResolvedPath, opts.Layout.Len()),
		root:       projectRoot,
		validators: make(map[string]*validate.Validator),
		dirMode:    opts.DirMode,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}

	resolver := resolve.New(opts.Env)
	raw := make(map[string]string, opts.Layout.Len())
	bases := make(map[string]string, opts.Layout.Len())

	for _, entry := range opts.Layout.Entries() {
		expanded, err := resolver.Expand(entry.Template)
		if err != nil {
			return nil, err
		}

		base := projectRoot
		if ref, ok := resolve.LeadingRef(entry.Template); ok {
			if v, bound := resolver.Resolved(ref); bound {
				base = filepath.Clean(v)
			} else if v, set := opts.Env(ref); set {
				base = filepath.Clean(v)
			}
		}

		raw[entry.Key] = expanded
		bases[entry.Key] = base
		resolver.Bind(entry.Key, filepath.Clean(expanded))
	}

	var merr *multierror.Error
	for _, entry := range opts.Layout.Entries() {
		key := entry.Key
		validator, err := r.validatorFor(bases[key], opts.MaxPathLength)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		// Validate the uncanonicalized expansion so a literal ".."
		// segment is caught before Clean would fold it away.
		result := validator.Validate(raw[key])
		if !result.Admissible() {
			r.countFailures(result)
			merr = multierror.Append(merr, &PathError{Key: key, Path: raw[key], Result: result})
			continue
		}

		r.resolved[key] = newResolvedPath(raw[key], bases[key])
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.RegistryEntries.Set(float64(len(r.resolved)))
	}
	r.log.Info("path registry built",
		zap.Int("entries", len(r.resolved)),
		zap.String("root", r.root))
	return r, nil
}

func newResolvedPath(expanded, base string) ResolvedPath {
	abs := filepath.Clean(expanded)
	rp := ResolvedPath{Absolute: abs, Base: base}
	if abs != base {
		if rel, err := filepath.Rel(base, abs); err == nil && rel != "." {
			rp.Relative = rel
			rp.Components = strings.Split(filepath.ToSlash(rel), "/")
		}
	}
	return rp
}

// validatorFor returns the cached validator rooted at base. Entries rooted
// outside the project tree (the temp key) validate against their own base.
// Every base is cached during Build, so post-build calls never mutate the
// map and lookups stay safe for concurrent readers.
func (r *Registry) validatorFor(base string, maxLength int) (*validate.Validator, error) {
	if v, ok := r.validators[base]; ok {
		return v, nil
	}
	var opts []validate.Option
	if maxLength > 0 {
		opts = append(opts, validate.WithMaxLength(maxLength))
	}
	v, err := validate.New(base, opts...)
	if err != nil {
		return nil, err
	}
	r.validators[base] = v
	return v, nil
}

func (r *Registry) countFailures(result validate.Result) {
	if r.metrics == nil {
		return
	}
	for _, rule := range result.Failing() {
		r.metrics.ValidationFailures.WithLabelValues(rule).Inc()
	}
}

// Root returns the project root the registry was built against.
func (r *Registry) Root() string { return r.root }

// Keys returns the resolved keys in layout declaration order.
func (r *Registry) Keys() []string { return r.layout.Keys() }

// GetPath returns the absolute path for key. Admissibility is re-checked on
// every lookup to catch filesystem drift (a symlink swapped in under an
// entry after construction).
func (r *Registry) GetPath(key string) (string, error) {
	rp, err := r.GetResolved(key)
	if err != nil {
		return "", err
	}
	return rp.Absolute, nil
}

// GetResolved returns the full ResolvedPath for key.
func (r *Registry) GetResolved(key string) (ResolvedPath, error) {
	rp, ok := r.resolved[key]
	if !ok {
		r.countLookup("unknown_key")
		return ResolvedPath{}, &UnknownKeyError{Key: key}
	}

	validator, err := r.validatorFor(rp.Base, 0)
	if err != nil {
		return ResolvedPath{}, err
	}
	if result := validator.Validate(rp.Absolute); !result.Admissible() {
		r.countFailures(result)
		r.countLookup("inadmissible")
		return ResolvedPath{}, &PathError{Key: key, Path: rp.Absolute, Result: result}
	}

	r.countLookup("ok")
	return rp, nil
}

func (r *Registry) countLookup(outcome string) {
	if r.metrics != nil {
		r.metrics.PathLookups.WithLabelValues(outcome).Inc()
	}
}

// AllPaths returns a snapshot of key to absolute path. Mutating the copy
// never affects the registry.
func (r *Registry) AllPaths() map[string]string {
	out := make(map[string]string, len(r.resolved))
	for key, rp := range r.resolved {
		out[key] = rp.Absolute
	}
	return out
}

// AllResolved returns a snapshot of the full resolved map.
func (r *Registry) AllResolved() map[string]ResolvedPath {
	out := make(map[string]ResolvedPath, len(r.resolved))
	for key, rp := range r.resolved {
		out[key] = rp
	}
	return out
}

// EnsureDirectories creates every registered directory (with parents) and
// applies the configured mode. Provisioning is best-effort across the whole
// set: per-key failures, including chmod failures, are collected and
// returned as one aggregate naming every key that failed. The in-memory map
// is never touched, and a second call on a provisioned tree is a no-op.
func (r *Registry) EnsureDirectories() error {
	keys := make([]string, 0, len(r.resolved))
	for key := range r.resolved {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var merr *multierror.Error
	for _, key := range keys {
		rp := r.resolved[key]
		if err := os.MkdirAll(rp.Absolute, r.dirMode); err != nil {
			r.countProvision(false)
			merr = multierror.Append(merr, &DirectoryError{Key: key, Path: rp.Absolute, Err: err})
			continue
		}
		if err := os.Chmod(rp.Absolute, r.dirMode); err != nil {
			r.countProvision(false)
			merr = multierror.Append(merr, &DirectoryError{Key: key, Path: rp.Absolute, Err: err})
			continue
		}
		r.countProvision(true)
		r.log.Debug("directory ensured",
			zap.String("key", key),
			zap.String("path", rp.Absolute))
	}
	return merr.ErrorOrNil()
}

func (r *Registry) countProvision(ok bool) {
	if r.metrics == nil {
		return
	}
	if ok {
		r.metrics.DirectoriesEnsured.Inc()
	} else {
		r.metrics.ProvisionFailures.Inc()
	}
}
