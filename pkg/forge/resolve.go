// File: pkg/forge/resolve.go
package forge

import (
	"path/filepath"
	"strings"
)

// ForgeMarker redirects an input line to the working root.
const ForgeMarker = "@forge "

// Resolver turns input lines into absolute paths.
type Resolver struct {
	ProjectRoot string
	WorkingRoot string
}

// Resolve maps a trimmed input line to an absolute path. Lines starting with
// ForgeMarker resolve against the working root, everything else against the
// project root. No filesystem access happens here.
func (r Resolver) Resolve(line string) string {
	if rest, ok := strings.CutPrefix(line, ForgeMarker); ok {
		return join(r.WorkingRoot, strings.TrimSpace(rest))
	}
	return join(r.ProjectRoot, line)
}

func join(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
