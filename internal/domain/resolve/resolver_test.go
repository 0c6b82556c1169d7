package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(vars map[string]string) LookupEnv {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func TestExpandEnvironmentReference(t *testing.T) {
	r := New(envFrom(map[string]string{"PROJECT_ROOT": "/srv/app"}))

	out, err := r.Expand("${PROJECT_ROOT}/data")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app/data", out)
}

func TestExpandKeyReference(t *testing.T) {
	r := New(envFrom(nil))
	r.Bind("models.base", "/srv/app/models")

	out, err := r.Expand("${models.base}/cache")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app/models/cache", out)
}

func TestKeysShadowEnvironment(t *testing.T) {
	// A bound key wins over an env var of the same name.
	r := New(envFrom(map[string]string{"data": "/from-env"}))
	r.Bind("data", "/from-keys")

	out, err := r.Expand("${data}")
	require.NoError(t, err)
	assert.Equal(t, "/from-keys", out)
}

func TestExpandMultipleReferences(t *testing.T) {
	r := New(envFrom(map[string]string{"TEMP_DIR": "/tmp"}))
	r.Bind("project_root", "/srv/app")

	out, err := r.Expand("${TEMP_DIR}/staging/${project_root}")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/staging//srv/app", out)
}

func TestExpandMissingEnvironmentVariable(t *testing.T) {
	r := New(envFrom(nil))

	_, err := r.Expand("${PROJECT_ROOT}/data")
	require.Error(t, err)

	var missing *MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "PROJECT_ROOT", missing.Variable)
}

func TestExpandForwardReferenceFails(t *testing.T) {
	// "cache" references "data" before anything bound it: the single-pass
	// design reports it as unresolved rather than reordering.
	r := New(envFrom(nil))

	_, err := r.Expand("${data}/cache")
	require.Error(t, err)

	var unresolved *UnresolvedRefError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "data", unresolved.Reference)
}

func TestExpandLeavesPlainTextAlone(t *testing.T) {
	r := New(envFrom(nil))

	out, err := r.Expand("/no/references/here")
	require.NoError(t, err)
	assert.Equal(t, "/no/references/here", out)
}

func TestLeadingRef(t *testing.T) {
	ref, ok := LeadingRef("${PROJECT_ROOT}/data")
	require.True(t, ok)
	assert.Equal(t, "PROJECT_ROOT", ref)

	ref, ok = LeadingRef("${models.base}/cache")
	require.True(t, ok)
	assert.Equal(t, "models.base", ref)

	_, ok = LeadingRef("/absolute/${PROJECT_ROOT}")
	assert.False(t, ok)

	_, ok = LeadingRef("/plain/path")
	assert.False(t, ok)
}
