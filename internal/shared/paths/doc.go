// Package paths defines the canonical logical keys of the directory layout.
//
// Every component that needs a filesystem location refers to one of these
// keys and asks the path registry for the resolved directory. Keys are
// stable names; the directories they point at come from the layout file.
//
// # Key Structure
//
//	project_root          (repository root, from PROJECT_ROOT)
//	├── src / config / tests
//	├── data.input / data.output / data.processed
//	├── models.base / models.pixtral / models.cache
//	├── logs / cache
//	└── temp              (under TEMP_DIR, outside the tree)
//
// # Usage
//
//	import "github.com/fieldlens/backend/internal/shared/paths"
//
//	dir, err := reg.GetPath(paths.DataInput)
package paths
