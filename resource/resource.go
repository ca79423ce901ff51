// Package resource discovers JSON resource files and hands their contents to
// the validator as (path, bytes) pairs.
//
// The validator only depends on Source, so tests can feed it in-memory
// resources without touching the filesystem.
package resource

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"

	"github.com/lattice-substrate/json-casegate/caseerr"
)

// DefaultExtensions lists the file suffixes collected when Options.Extensions is empty.
var DefaultExtensions = []string{".json"}

// Resource is one discovered file.
type Resource struct {
	Path string
	Data []byte
}

// Source enumerates resources in a stable order.
type Source interface {
	List() ([]Resource, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() ([]Resource, error)

// List calls f.
func (f SourceFunc) List() ([]Resource, error) {
	return f()
}

// Static is a Source over a fixed slice.
type Static []Resource

// List returns a copy of s.
func (s Static) List() ([]Resource, error) {
	out := make([]Resource, len(s))
	copy(out, s)
	return out, nil
}

// Options controls discovery.
type Options struct {
	// Extensions are matched case-sensitively against the file name suffix.
	Extensions []string
	// Exclude holds doublestar patterns matched against slash-separated paths
	// relative to the walk root. A matching directory is not descended into.
	Exclude []string
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return DefaultExtensions
	}
	return o.Extensions
}

func (o Options) hasExtension(name string) bool {
	for _, ext := range o.extensions() {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (o Options) excluded(rel string) (bool, error) {
	for _, pattern := range o.Exclude {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, caseerr.Wrap(caseerr.ConfigError, "", "bad exclude pattern "+pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Discover walks root inside fsys and returns the slash-separated paths of
// every regular file with a matching extension, in lexical walk order.
// An unreadable root or subdirectory is an IOError.
func Discover(fsys fs.FS, root string, opts Options) ([]string, error) {
	var paths []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return caseerr.Wrap(caseerr.IOError, p, "walk", err)
		}
		if p != root {
			rel := strings.TrimPrefix(p, root+"/")
			if root == "." {
				rel = p
			}
			skip, err := opts.excluded(rel)
			if err != nil {
				return err
			}
			if skip {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() || !opts.hasExtension(d.Name()) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// FS is a Source over a single root inside an fs.FS.
type FS struct {
	FS      fs.FS
	Root    string
	Options Options
	Logger  *zap.Logger
}

// List discovers and reads every matching file under Root.
func (s FS) List() ([]Resource, error) {
	root := s.Root
	if root == "" {
		root = "."
	}
	return list(s.FS, root, s.Options, loggerOr(s.Logger), func(p string) string { return p }, nil)
}

// Tree is a Source over directories on the host filesystem. Roots are walked
// in order and reported paths are joined onto the root as given.
//
// Skip names host files that are never listed, whatever Options say; the CLI
// puts its own config file there.
type Tree struct {
	Roots   []string
	Options Options
	Skip    []string
	Logger  *zap.Logger
}

// List discovers and reads every matching file under each root.
func (t Tree) List() ([]Resource, error) {
	log := loggerOr(t.Logger)
	skip := make(map[string]bool, len(t.Skip))
	for _, p := range t.Skip {
		skip[absPath(p)] = true
	}
	keep := func(p string) bool { return !skip[absPath(p)] }

	var out []Resource
	for _, root := range t.Roots {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, caseerr.Wrap(caseerr.IOError, root, "stat root", err)
		}
		if !fi.IsDir() {
			return nil, caseerr.New(caseerr.IOError, root, "root is not a directory")
		}
		dir := root
		res, err := list(os.DirFS(dir), ".", t.Options, log, func(p string) string {
			return filepath.Join(dir, filepath.FromSlash(p))
		}, keep)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func list(fsys fs.FS, root string, opts Options, log *zap.Logger, display func(string) string, keep func(string) bool) ([]Resource, error) {
	paths, err := Discover(fsys, root, opts)
	if err != nil {
		return nil, withDisplayPath(err, display)
	}
	log.Debug("discovered resources", zap.String("root", display(root)), zap.Int("count", len(paths)))

	out := make([]Resource, 0, len(paths))
	for _, p := range paths {
		if keep != nil && !keep(display(p)) {
			log.Debug("skipped resource", zap.String("path", display(p)))
			continue
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, caseerr.Wrap(caseerr.IOError, display(p), "read file", err)
		}
		out = append(out, Resource{Path: display(p), Data: data})
	}
	return out, nil
}

func withDisplayPath(err error, display func(string) string) error {
	ce, ok := err.(*caseerr.Error)
	if !ok || ce.Path == "" {
		return err
	}
	return &caseerr.Error{Class: ce.Class, Path: display(ce.Path), Message: ce.Message, Cause: ce.Cause}
}

func loggerOr(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

