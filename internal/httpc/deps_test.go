package httpc

import (
	"go/build"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/teslashibe/go-scanner"

// localDeps walks the in-module imports of dir and returns every import path
// reached, local or not.
func localDeps(t *testing.T, root, dir string, seen map[string]bool) {
	t.Helper()
	pkg, err := build.ImportDir(dir, 0)
	if err != nil {
		t.Fatalf("import %s: %v", dir, err)
	}
	for _, imp := range pkg.Imports {
		if seen[imp] {
			continue
		}
		seen[imp] = true
		if rel, ok := strings.CutPrefix(imp, modulePath+"/"); ok {
			localDeps(t, root, filepath.Join(root, filepath.FromSlash(rel)), seen)
		}
	}
}

func TestClientBuildsWithoutCamera(t *testing.T) {
	root := filepath.Join("..", "..")
	for _, dir := range []string{"internal/httpc", "cmd/scanwatch", "pkg/scanner/state"} {
		t.Run(dir, func(t *testing.T) {
			seen := make(map[string]bool)
			localDeps(t, root, filepath.Join(root, dir), seen)
			for _, banned := range []string{"gocv.io/x/gocv", modulePath + "/pkg/camera", modulePath + "/pkg/scanner"} {
				if seen[banned] {
					t.Errorf("%s depends on %s", dir, banned)
				}
			}
		})
	}
}
