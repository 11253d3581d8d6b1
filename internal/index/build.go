package index

import (
	"context"
	"crypto/sha256"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// SourceExt is the file extension of Reef modules.
const SourceExt = ".rf"

// BuildOptions configures an index build.
type BuildOptions struct {
	// Overlay maps absolute file paths to in-editor content overriding disk.
	Overlay map[string]string
	// Cache, when set, reuses scanned module surfaces across builds.
	Cache *Cache
	// Jobs limits scan parallelism; <= 0 means GOMAXPROCS.
	Jobs int
}

// ListSourceFiles returns the sorted list of *.rf files under dir.
func ListSourceFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ModuleName derives a module's slash-separated name from its path below srcDir.
func ModuleName(srcDir, path string) string {
	rel, err := filepath.Rel(srcDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, SourceExt)
	return filepath.ToSlash(rel)
}

// Build scans every module under srcDir in parallel and assembles the Index.
//
// Files whose imports cannot be scanned are left out of the index; an
// unparseable module simply has no indexed surface until it is fixed.
func Build(ctx context.Context, srcDir string, opts BuildOptions) (*Index, error) {
	files, err := ListSourceFiles(srcDir)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	scanned := make([]*Module, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mod, err := scanFile(srcDir, path, opts)
			if err != nil {
				return err
			}
			scanned[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	modules := make([]*Module, 0, len(scanned))
	for _, m := range scanned {
		if m != nil {
			modules = append(modules, m)
		}
	}
	return New(modules), nil
}

func scanFile(srcDir, path string, opts BuildOptions) (*Module, error) {
	name := ModuleName(srcDir, path)

	if text, ok := overlayFor(opts.Overlay, path); ok {
		mod, err := ScanSource(name, text)
		if err != nil {
			return nil, nil // unparseable overlay: no surface until fixed
		}
		return mod, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var key Digest
	if opts.Cache != nil {
		key = sha256.Sum256(content)
		if mod, ok := opts.Cache.Get(key); ok {
			mod.Name = name
			return mod, nil
		}
	}

	mod, err := ScanSource(name, string(content))
	if err != nil {
		return nil, nil
	}
	if opts.Cache != nil {
		// Cache failures are not build failures.
		_ = opts.Cache.Put(key, mod)
	}
	return mod, nil
}

func overlayFor(overlay map[string]string, path string) (string, bool) {
	if len(overlay) == 0 {
		return "", false
	}
	if text, ok := overlay[path]; ok {
		return text, true
	}
	if abs, err := filepath.Abs(path); err == nil {
		if text, ok := overlay[abs]; ok {
			return text, true
		}
	}
	return "", false
}
