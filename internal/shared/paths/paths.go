package paths

import (
	"fmt"
	"regexp"
	"strings"
)

// Core keys
const (
	ProjectRoot = "project_root"
	Src         = "src"
	Config      = "config"
	Tests       = "tests"
)

// Data keys
const (
	DataInput     = "data.input"
	DataOutput    = "data.output"
	DataProcessed = "data.processed"
)

// Model keys
const (
	ModelsBase  = "models.base"
	ModelsModel = "models.pixtral"
	ModelsCache = "models.cache"
)

// System keys
const (
	Logs  = "logs"
	Temp  = "temp"
	Cache = "cache"
)

// RequiredEnv lists the environment variables that must be set before the
// registry can build. Order matters: the first missing variable is the one
// reported.
var RequiredEnv = []string{"PROJECT_ROOT", "USER_HOME", "TEMP_DIR"}

// keyPattern restricts logical keys to lowercase words joined by
// underscores, with dots separating group levels.
var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// StandardKeys returns every key the default layout declares, in
// declaration order.
func StandardKeys() []string {
	return []string{
		ProjectRoot,
		Src,
		Config,
		Tests,
		DataInput,
		DataOutput,
		DataProcessed,
		ModelsBase,
		ModelsModel,
		ModelsCache,
		Logs,
		Temp,
		Cache,
	}
}

// ValidateKey checks that a logical key is well formed.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("logical key cannot be empty")
	}
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("logical key %q contains invalid characters", key)
	}
	return nil
}

// Group returns the dotted group prefix of a key, or "" for top-level keys.
func Group(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i]
	}
	return ""
}
