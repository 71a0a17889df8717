package launch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"
)

// App is one launchable installed application.
type App struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Icon string `json:"icon"`
}

// maxIndexDepth caps the Start Menu walk; vendor folders nest shortcuts
// a couple of levels deep at most.
const maxIndexDepth = 4

// AppIndex discovers installed applications by scanning the Start Menu
// program folders for shortcut and executable entries.
type AppIndex struct {
	roots  []string
	logger *zap.Logger
}

// NewAppIndex creates an index over the given root directories. Empty
// roots default to the system and per-user Start Menu program folders.
func NewAppIndex(roots []string, logger *zap.Logger) *AppIndex {
	if len(roots) == 0 {
		roots = startMenuRoots()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppIndex{roots: roots, logger: logger}
}

func startMenuRoots() []string {
	var roots []string
	if pd := os.Getenv("ProgramData"); pd != "" {
		roots = append(roots, filepath.Join(pd, "Microsoft", "Windows", "Start Menu", "Programs"))
	}
	if ad := os.Getenv("APPDATA"); ad != "" {
		roots = append(roots, filepath.Join(ad, "Microsoft", "Windows", "Start Menu", "Programs"))
	}
	return roots
}

// List scans the roots and returns applications sorted by name, deduped
// case-insensitively (the per-user folder shadows the system one).
// Uninstaller shortcuts are filtered out. Missing roots are skipped.
func (a *AppIndex) List(ctx context.Context) ([]App, error) {
	var (
		mu   sync.Mutex
		apps []App
	)
	seen := make(map[string]bool)
	conf := fastwalk.Config{Follow: false}

	for _, root := range a.roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if depth(root, p) > maxIndexDepth {
					return filepath.SkipDir
				}
				return nil
			}
			name, ok := appName(p)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			key := strings.ToLower(name)
			if seen[key] {
				return nil
			}
			seen[key] = true
			apps = append(apps, App{Name: name, Path: p, Icon: p})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})
	a.logger.Debug("installed applications indexed", zap.Int("count", len(apps)))
	return apps, nil
}

// appName maps an entry to a display name, or reports it is not an
// application entry.
func appName(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".lnk" && ext != ".exe" {
		return "", false
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" || strings.Contains(strings.ToLower(name), "uninstall") {
		return "", false
	}
	return name, true
}

func depth(root, p string) int {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
