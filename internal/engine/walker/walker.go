package walker

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"codegraph/internal/core/errors"
	"codegraph/internal/shared/util"

	"github.com/gobwas/glob"
)

// SkippedFile records a path the walker could not visit and why.
type SkippedFile struct {
	Path   string
	Reason string
}

// Walker discovers candidate source files under a root, applying exclude
// globs and a per-language support filter.
type Walker struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	supported    func(path string) bool
	maxFileSize  int64
}

// New compiles the exclude patterns. Repeated patterns, common when a
// config file restates a default, compile once.
func New(excludeDirs, excludeFiles []string, supported func(string) bool, maxFileSize int64) (*Walker, error) {
	excludeDirs = util.UniqueStrings(excludeDirs)
	excludeFiles = util.UniqueStrings(excludeFiles)

	dirGlobs := make([]glob.Glob, 0, len(excludeDirs))
	for _, p := range excludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidation, fmt.Sprintf("invalid exclude dir pattern %q", p))
		}
		dirGlobs = append(dirGlobs, g)
	}

	fileGlobs := make([]glob.Glob, 0, len(excludeFiles))
	for _, p := range excludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidation, fmt.Sprintf("invalid exclude file pattern %q", p))
		}
		fileGlobs = append(fileGlobs, g)
	}

	return &Walker{
		excludeDirs:  dirGlobs,
		excludeFiles: fileGlobs,
		supported:    supported,
		maxFileSize:  maxFileSize,
	}, nil
}

// Walk returns the candidate files under root in lexical order, plus the
// paths that were skipped for permission or size reasons. A missing or
// non-directory root is fatal; everything below it is not.
func (w *Walker) Walk(root string) ([]string, []SkippedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "cannot stat scan root"), errors.CtxPath, root)
	}
	if !info.IsDir() {
		return nil, nil, errors.AddContext(
			errors.New(errors.CodeIO, "scan root is not a directory"), errors.CtxPath, root)
	}

	var files []string
	var skipped []SkippedFile

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsPermission(err) {
				skipped = append(skipped, SkippedFile{Path: path, Reason: "permission denied"})
				slog.Debug("skipping unreadable path", "path", path)
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			skipped = append(skipped, SkippedFile{Path: path, Reason: err.Error()})
			return nil
		}

		base := filepath.Base(path)
		if d.IsDir() {
			for _, g := range w.excludeDirs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if w.supported != nil && !w.supported(path) {
			return nil
		}

		for _, g := range w.excludeFiles {
			if g.Match(base) {
				return nil
			}
		}

		if w.maxFileSize > 0 {
			fi, err := d.Info()
			if err != nil {
				skipped = append(skipped, SkippedFile{Path: path, Reason: err.Error()})
				return nil
			}
			if fi.Size() > w.maxFileSize {
				skipped = append(skipped, SkippedFile{Path: path, Reason: "exceeds max file size"})
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if walkErr != nil {
		return nil, nil, errors.Wrap(walkErr, errors.CodeIO, "walk failed")
	}

	return files, skipped, nil
}
