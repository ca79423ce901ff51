package conformance_test

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cyberphone "github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/lattice-substrate/json-casegate/document"
	"github.com/lattice-substrate/json-casegate/jsonc"
)

// Every well-formed fixture must canonicalize identically whether its
// comment lines are stripped by jsonc or dropped by a plain line filter.
func TestFixtureStripRoundTrip(t *testing.T) {
	root := filepath.Join(repoRoot(t), "conformance", "testdata")
	var checked int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") || strings.Contains(path, "parse_error") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		checked++
		t.Run(filepath.Base(path), func(t *testing.T) {
			// The canonicalizer rejects a byte order mark; document.Load does not.
			body := bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
			got, err := cyberphone.Transform(jsonc.Strip(body))
			if err != nil {
				t.Fatalf("canonicalize stripped %s: %v", path, err)
			}
			want, err := cyberphone.Transform(filterLines(body))
			if err != nil {
				t.Fatalf("canonicalize filtered %s: %v", path, err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("canonical mismatch for %s:\n got=%s\nwant=%s", path, got, want)
			}
			if _, err := document.Load(path, raw); err != nil {
				t.Fatalf("load %s: %v", path, err)
			}
		})
		return nil
	})
	if err != nil {
		t.Fatalf("walk fixtures: %v", err)
	}
	if checked == 0 {
		t.Fatal("no fixtures found")
	}
}

func filterLines(raw []byte) []byte {
	normalized := strings.ReplaceAll(string(raw), "\r\n", "\n")
	var kept []string
	for _, line := range strings.Split(normalized, "\n") {
		if strings.HasPrefix(line, "//") {
			continue
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n"))
}
