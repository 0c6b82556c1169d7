package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/fieldlens/backend/internal/domain/registry"
	"github.com/fieldlens/backend/internal/logging"
	"github.com/fieldlens/backend/internal/shared/paths"
)

// Loader reads prompt templates from the prompts directory under the
// registry's config path.
type Loader struct {
	dir string
	log *logging.Logger
}

// NewLoader resolves the prompts directory through the registry. The
// directory is created if it does not exist yet.
func NewLoader(reg *registry.Registry, log *logging.Logger) (*Loader, error) {
	if log == nil {
		log = logging.NewNop()
	}
	configDir, err := reg.GetPath(paths.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prompt directory: %w", err)
	}
	dir := filepath.Join(configDir, "prompts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create prompt directory %s: %w", dir, err)
	}
	return &Loader{dir: dir, log: log.Named("prompt")}, nil
}

// Dir returns the prompts directory.
func (l *Loader) Dir() string { return l.dir }

// Load reads and validates the named template from <dir>/<name>.yaml.
func (l *Loader) Load(name string) (*Template, error) {
	path := l.templatePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TemplateError{Name: name, Err: fmt.Errorf("not found at %s", path)}
		}
		return nil, &TemplateError{Name: name, Err: err}
	}

	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, &TemplateError{Name: name, Err: fmt.Errorf("invalid YAML: %w", err)}
	}
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List returns the available template names mapped to their descriptions.
// Unreadable or malformed files are skipped with a warning so one bad file
// does not hide the rest.
func (l *Loader) List() (map[string]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt directory: %w", err)
	}

	templates := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		tpl, err := l.Load(name)
		if err != nil {
			l.log.Warn("skipping unreadable prompt template",
				zap.String("name", name), zap.Error(err))
			continue
		}
		templates[name] = tpl.Description
	}
	return templates, nil
}

func (l *Loader) templatePath(name string) string {
	return filepath.Join(l.dir, name+".yaml")
}
