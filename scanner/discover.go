package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/memgraph/memgraph/scanner/lang"
)

// defaultExcludes is the standard vendored/build/cache set excluded
// unconditionally, regardless of user configuration.
var defaultExcludes = []string{
	".git", "node_modules", "vendor", "dist", "build", "target",
	"__pycache__", ".scanstate", ".venv", "bin", "obj",
}

// defaultIncludes covers the common source file extensions and the
// generic manifest basenames the built-in parsers recognize.
var defaultIncludes = []string{
	"*.go", "*.py", "*.ts", "*.tsx", "*.js", "*.jsx", "*.rs", "*.java",
	"package.json", "tsconfig.json", "go.mod", ".env", "Dockerfile",
}

// discoveredFile is one surviving file after include/exclude filtering.
type discoveredFile struct {
	path         string // absolute
	relativePath string
	size         int64
	modTime      int64
	language     string
	content      []byte
	hash         string
}

// discover walks root, applying include globs and the exclude set, and
// returns every surviving file with its content read and hash computed.
// Parseability filtering (by declared languages) happens separately so
// the fingerprint store always covers every discovered file, per
// spec.md §4.7 ("Emit a fingerprint store of every file, and the subset
// of files eligible for parsing").
func discover(root string, includes, excludes []string) ([]discoveredFile, error) {
	if len(includes) == 0 {
		includes = defaultIncludes
	}
	allExcludes := append(append([]string{}, defaultExcludes...), excludes...)

	var files []discoveredFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if matchesAnyBasename(allExcludes, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAnyBasename(allExcludes, d.Name()) {
			return nil
		}
		if !matchesAnyGlob(includes, d.Name(), rel) {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}

		files = append(files, discoveredFile{
			path: path, relativePath: filepath.ToSlash(rel),
			size: info.Size(), modTime: info.ModTime().Unix(),
			language: lang.Detect(path), content: content, hash: contentHash(content),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanner: walking scan target")
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relativePath < files[j].relativePath })
	return files, nil
}

func matchesAnyBasename(patterns []string, name string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// matchesAnyGlob reports whether name or relPath matches any pattern.
// Patterns are matched against the basename directly (covering the
// common "*.ext" and literal-basename cases); a leading "**/" is
// stripped so directory-spanning globs still match by basename, which
// is the forgiving approximation this scanner makes instead of pulling
// in a doublestar-style glob library the example pack doesn't use.
func matchesAnyGlob(patterns []string, name, relPath string) bool {
	for _, p := range patterns {
		pat := strings.TrimPrefix(p, "**/")
		if ok, _ := filepath.Match(pat, name); ok {
			return true
		}
		if ok, _ := filepath.Match(p, relPath); ok {
			return true
		}
	}
	return false
}
