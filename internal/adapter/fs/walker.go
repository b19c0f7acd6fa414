package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"yada/internal/port"
)

var _ port.FileWalker = (*Walker)(nil)

// Walker lists files under a root whose root-relative slash paths match at
// least one include glob and no exclude glob.
type Walker struct {
	includes []string
	excludes []string
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns matches sorted by path. A root that is itself a regular file
// is returned as the only match, without consulting the globs.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []port.FileInfo{toFileInfo(root, info)}, nil
	}

	var files []port.FileInfo
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && w.matchAny(w.excludes, relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.matchAny(w.includes, relPath) || w.matchAny(w.excludes, relPath) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, toFileInfo(path, fi))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func toFileInfo(path string, fi os.FileInfo) port.FileInfo {
	return port.FileInfo{
		Path:    path,
		ModTime: fi.ModTime().Unix(),
		Size:    fi.Size(),
	}
}
