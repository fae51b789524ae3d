// File: internal/browser/driver/locate.go
package driver

import (
	"fmt"
	"os/exec"
)

// browserCandidates are the executable names probed in order when no explicit
// path is configured.
var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"brave-browser",
	"microsoft-edge",
	"msedge",
	"headless-shell",
}

// LocateExecutable resolves the browser binary the driver would launch: the
// configured path when set, otherwise the first well-known name found on
// PATH.
func LocateExecutable(configured string) (string, error) {
	if configured != "" {
		path, err := exec.LookPath(configured)
		if err != nil {
			return "", fmt.Errorf("configured browser %q not found: %w", configured, err)
		}
		return path, nil
	}
	for _, name := range browserCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no chrome-compatible browser found on PATH, set browser.exec_path")
}
