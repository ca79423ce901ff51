package resource_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice-substrate/json-casegate/caseerr"
	"github.com/lattice-substrate/json-casegate/resource"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"suites/2019/eme.json":              {Data: []byte(`{"test_case":[]}`)},
		"suites/2019/notes.txt":             {Data: []byte(`x`)},
		"suites/tip/mse.json":               {Data: []byte(`{"test_case":[]}`)},
		"suites/tip/UPPER.JSON":             {Data: []byte(`{"test_case":[]}`)},
		"top.json":                          {Data: []byte(`{"test_case":[]}`)},
		"web/node_modules/pkg/package.json": {Data: []byte(`{}`)},
		"legacy/old.json":                   {Data: []byte(`{}`)},
		"suites/tip/streams.jsonc":          {Data: []byte(`{}`)},
	}
}

func TestDiscoverCollectsJSONFilesInLexicalOrder(t *testing.T) {
	got, err := resource.Discover(testFS(), ".", resource.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"legacy/old.json",
		"suites/2019/eme.json",
		"suites/tip/mse.json",
		"top.json",
		"web/node_modules/pkg/package.json",
	}, got)
}

func TestDiscoverSubdirectoryRoot(t *testing.T) {
	got, err := resource.Discover(testFS(), "suites", resource.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"suites/2019/eme.json", "suites/tip/mse.json"}, got)
}

func TestDiscoverExclude(t *testing.T) {
	got, err := resource.Discover(testFS(), ".", resource.Options{
		Exclude: []string{"**/node_modules/**", "legacy/*.json"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"suites/2019/eme.json", "suites/tip/mse.json", "top.json"}, got)
}

func TestDiscoverExtensions(t *testing.T) {
	got, err := resource.Discover(testFS(), "suites", resource.Options{Extensions: []string{".jsonc", ".JSON"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"suites/tip/UPPER.JSON", "suites/tip/streams.jsonc"}, got)
}

func TestDiscoverMissingRootIsIOError(t *testing.T) {
	_, err := resource.Discover(testFS(), "missing", resource.Options{})
	require.Error(t, err)
	assert.Equal(t, caseerr.IOError, caseerr.ClassOf(err))
}

func TestFSListReadsContents(t *testing.T) {
	res, err := resource.FS{FS: testFS(), Root: "suites"}.List()
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "suites/2019/eme.json", res[0].Path)
	assert.Equal(t, `{"test_case":[]}`, string(res[0].Data))
}

func TestTreeListWalksRootsInOrder(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeFile(t, filepath.Join(a, "z.json"), "{}")
	writeFile(t, filepath.Join(a, "sub", "a.json"), "{}")
	writeFile(t, filepath.Join(b, "b.json"), "[]")

	res, err := resource.Tree{Roots: []string{b, a}}.List()
	require.NoError(t, err)

	var paths []string
	for _, r := range res {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{
		filepath.Join(b, "b.json"),
		filepath.Join(a, "sub", "a.json"),
		filepath.Join(a, "z.json"),
	}, paths)
	assert.Equal(t, "[]", string(res[0].Data))
}

func TestTreeMissingRootIsIOError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := resource.Tree{Roots: []string{missing}}.List()
	require.Error(t, err)
	assert.True(t, caseerr.Is(err, caseerr.IOError))
	assert.Contains(t, err.Error(), missing)
}

func TestTreeFileRootIsIOError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.json")
	writeFile(t, file, "{}")

	_, err := resource.Tree{Roots: []string{file}}.List()
	require.Error(t, err)
	assert.True(t, caseerr.Is(err, caseerr.IOError))
	assert.Contains(t, err.Error(), "root is not a directory")
	assert.NotContains(t, err.Error(), "walk")
}

func TestTreeSkipsNamedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), "{}")
	writeFile(t, filepath.Join(dir, ".jsoncase.json"), `{"mode":"exhaustive"}`)
	writeFile(t, filepath.Join(dir, "sub", ".jsoncase.json"), "{}")
	t.Chdir(dir)

	res, err := resource.Tree{Roots: []string{"."}, Skip: []string{".jsoncase.json"}}.List()
	require.NoError(t, err)

	var paths []string
	for _, r := range res {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"a.json", filepath.Join("sub", ".jsoncase.json")}, paths)

	res, err = resource.Tree{Roots: []string{dir}, Skip: []string{".jsoncase.json"}}.List()
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestStaticAndSourceFunc(t *testing.T) {
	s := resource.Static{{Path: "a.json", Data: []byte("{}")}}
	got, err := s.List()
	require.NoError(t, err)
	got[0].Path = "changed"
	assert.Equal(t, "a.json", s[0].Path)

	calls := 0
	f := resource.SourceFunc(func() ([]resource.Resource, error) {
		calls++
		return nil, nil
	})
	_, err = f.List()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
