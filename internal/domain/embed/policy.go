package embed

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Policy lists window classes the controller refuses to embed.
// Reparenting shell surfaces (Explorer, the desktop, the taskbar, UWP
// frame hosts) can deadlock or destabilize the whole desktop, so the
// OS-level refusal is front-run here with a clear error.
type Policy struct {
	excluded []string
}

// defaultExcluded mirrors the window classes known to be unsafe hosts'
// children. Matching is by substring: variants like CabinetWClass2
// count.
var defaultExcluded = []string{
	"CabinetWClass",
	"ExplorerWClass",
	"Progman",
	"WorkerW",
	"Shell_TrayWnd",
	"Shell_SecondaryTrayWnd",
	"TaskManagerWindow",
	"Windows.UI.Core.CoreWindow",
}

// DefaultPolicy returns the built-in refusal list.
func DefaultPolicy() *Policy {
	return &Policy{excluded: defaultExcluded}
}

type policyFile struct {
	ExcludedClasses []string `yaml:"excluded_classes"`
}

// LoadPolicy reads a YAML refusal list. Classes in the file extend the
// built-in list; they never shrink it.
func LoadPolicy(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	var pf policyFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}
	p := &Policy{excluded: append([]string{}, defaultExcluded...)}
	p.excluded = append(p.excluded, pf.ExcludedClasses...)
	return p, nil
}

// Refuses reports whether a window class is on the refusal list.
func (p *Policy) Refuses(className string) bool {
	for _, ex := range p.excluded {
		if ex != "" && strings.Contains(className, ex) {
			return true
		}
	}
	return false
}
