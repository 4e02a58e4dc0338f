// Package scanner discovers analyzable source files under a directory tree.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dshills/docforge/pkg/types"
)

// ErrRootRequired is returned when no scan root is provided.
var ErrRootRequired = errors.New("scan root path is required")

// DefaultMaxFileSize caps the size of files loaded into memory.
const DefaultMaxFileSize = 256 * 1024

// languageByExt maps supported file extensions to language tags.
var languageByExt = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".ts":    "typescript",
	".java":  "java",
	".cpp":   "cpp",
	".c":     "c",
	".h":     "c",
	".hpp":   "cpp",
	".cs":    "csharp",
	".go":    "go",
	".rs":    "rust",
	".php":   "php",
	".rb":    "ruby",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".ipynb": "jupyter",
}

// defaultIgnoreDirs are directory names skipped during traversal.
var defaultIgnoreDirs = map[string]struct{}{
	".git":         {},
	"__pycache__":  {},
	"node_modules": {},
	".venv":        {},
	"venv":         {},
	"env":          {},
	"vendor":       {},
}

// Options configures a scan.
type Options struct {
	// Extensions maps file extensions (with leading dot) to language tags.
	// Nil means the default supported set.
	Extensions map[string]string
	// IgnoreDirs is the set of directory names to skip. Nil means the
	// default set.
	IgnoreDirs map[string]struct{}
	// MaxFileSize is the largest file loaded, in bytes. Zero means
	// DefaultMaxFileSize.
	MaxFileSize int64
}

// DefaultOptions returns the default scan configuration.
func DefaultOptions() Options {
	return Options{
		Extensions:  languageByExt,
		IgnoreDirs:  defaultIgnoreDirs,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LanguageForPath returns the language tag for a file path, or "" when the
// extension is not supported.
func LanguageForPath(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}

// Scan walks root and returns every supported source file with its content
// loaded. Order follows filesystem traversal and is not guaranteed stable.
// Files that cannot be read or decoded are skipped with a warning; only a
// missing root is fatal.
func Scan(root string, opts Options) ([]types.SourceFile, error) {
	if root == "" {
		return nil, ErrRootRequired
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	exts := opts.Extensions
	if exts == nil {
		exts = languageByExt
	}
	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = defaultIgnoreDirs
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gi := loadGitignore(root)

	var files []types.SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("warning: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := ignoreDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := exts[strings.ToLower(filepath.Ext(name))]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			log.Printf("warning: stat failed for %s: %v", rel, err)
			return nil
		}
		if fi.Size() > maxSize {
			log.Printf("warning: skipping %s: %d bytes exceeds limit", rel, fi.Size())
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("warning: failed to read %s: %v", rel, err)
			return nil
		}

		content := string(data)
		if lang == "jupyter" {
			content, err = FlattenNotebook(name, data)
			if err != nil {
				log.Printf("warning: failed to flatten notebook %s: %v", rel, err)
				return nil
			}
			if content == "" {
				return nil
			}
		} else if !utf8.ValidString(content) {
			log.Printf("warning: skipping %s: not valid UTF-8", rel)
			return nil
		}

		files = append(files, types.SourceFile{
			Path:     rel,
			Language: lang,
			Content:  content,
			Size:     fi.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// loadGitignore compiles the root .gitignore when present.
func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
