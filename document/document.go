// Package document parses JSON resource files into the test case tree that
// the casing rules inspect.
//
// A resource has the shape
//
//	{"test_case": [{"test_case": {"certification_program": [...], "capabilities": [...]}}]}
//
// Only the keys on the path to a body are required. Body fields are decoded
// lazily through Strings so that any field name can be checked.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/lattice-substrate/json-casegate/caseerr"
	"github.com/lattice-substrate/json-casegate/jsonc"
)

// Well-known keys.
const (
	KeyTestCase               = "test_case"
	KeyTestCaseID             = "test_case_id"
	FieldCertificationProgram = "certification_program"
	FieldCapabilities         = "capabilities"
	FieldTestSuite            = "test_suite"
	FieldTestCategory         = "test_category"
	FieldTestTitle            = "test_title"
	FieldIsManual             = "is_manual"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Document is a parsed resource file.
type Document struct {
	Path      string
	TestCases []TestCaseEntry
}

// TestCaseEntry is one element of the top-level test_case array.
type TestCaseEntry struct {
	Index int
	Body  *TestCaseBody

	id json.RawMessage
}

// TestCaseBody holds the fields under validation.
type TestCaseBody struct {
	path   string
	index  int
	fields map[string]json.RawMessage
}

// Load strips comment lines from raw and parses the result.
func Load(path string, raw []byte) (*Document, error) {
	return Parse(path, jsonc.Strip(raw))
}

// Parse parses comment-free JSON. path is only used in error messages.
// A leading UTF-8 byte order mark is ignored.
// Errors are *caseerr.Error values of class ParseError.
func Parse(path string, data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, caseerr.Wrap(caseerr.ParseError, path, "invalid JSON", err)
	}
	if top == nil {
		return nil, caseerr.New(caseerr.ParseError, path, "top-level value must be an object")
	}

	raw, ok := top[KeyTestCase]
	if !ok || isNull(raw) {
		return nil, caseerr.New(caseerr.ParseError, path, fmt.Sprintf("missing %q array", KeyTestCase))
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, caseerr.Wrap(caseerr.ParseError, path, fmt.Sprintf("%q must be an array", KeyTestCase), err)
	}

	doc := &Document{Path: path, TestCases: make([]TestCaseEntry, 0, len(entries))}
	for i, entry := range entries {
		tc, err := parseEntry(path, i, entry)
		if err != nil {
			return nil, err
		}
		doc.TestCases = append(doc.TestCases, tc)
	}
	return doc, nil
}

func parseEntry(path string, index int, raw json.RawMessage) (TestCaseEntry, error) {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil || entry == nil {
		return TestCaseEntry{}, caseerr.Wrap(caseerr.ParseError, path, fmt.Sprintf("entry %d must be an object", index), err)
	}
	inner, ok := entry[KeyTestCase]
	if !ok || isNull(inner) {
		return TestCaseEntry{}, caseerr.New(caseerr.ParseError, path, fmt.Sprintf("entry %d: missing nested %q object", index, KeyTestCase))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(inner, &fields); err != nil {
		return TestCaseEntry{}, caseerr.Wrap(caseerr.ParseError, path, fmt.Sprintf("entry %d: nested %q must be an object", index, KeyTestCase), err)
	}
	return TestCaseEntry{
		Index: index,
		Body:  &TestCaseBody{path: path, index: index, fields: fields},
		id:    entry[KeyTestCaseID],
	}, nil
}

// ID returns the entry's test_case_id, which sits beside the nested body.
// Numeric IDs are returned in their literal form. ok is false when the key is
// absent or null; any other non-string value is a ParseError.
func (e TestCaseEntry) ID() (id string, ok bool, err error) {
	if e.id == nil || isNull(e.id) {
		return "", false, nil
	}
	raw := bytes.TrimSpace(e.id)
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && len(raw) > 0 && raw[0] != '"' {
		return n.String(), true, nil
	}
	if err := json.Unmarshal(raw, &id); err != nil {
		path := ""
		if e.Body != nil {
			path = e.Body.path
		}
		return "", true, caseerr.Wrap(caseerr.ParseError, path,
			fmt.Sprintf("entry %d: %q must be a string or number", e.Index, KeyTestCaseID), err)
	}
	return id, true, nil
}

// Has reports whether the body carries field.
func (b *TestCaseBody) Has(field string) bool {
	_, ok := b.fields[field]
	return ok
}

// Strings returns the string array stored under field. ok is false when the
// key is absent. A present key that does not hold an array of strings is a
// ParseError.
func (b *TestCaseBody) Strings(field string) (values []string, ok bool, err error) {
	raw, ok := b.fields[field]
	if !ok {
		return nil, false, nil
	}
	if isNull(raw) {
		return nil, true, caseerr.New(caseerr.ParseError, b.path,
			fmt.Sprintf("entry %d: %q must be an array of strings, got null", b.index, field))
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, true, caseerr.Wrap(caseerr.ParseError, b.path,
			fmt.Sprintf("entry %d: %q must be an array of strings", b.index, field), err)
	}
	values = make([]string, len(elems))
	for i, elem := range elems {
		if isNull(elem) {
			return nil, true, caseerr.New(caseerr.ParseError, b.path,
				fmt.Sprintf("entry %d: %q element %d must be a string, got null", b.index, field, i))
		}
		if err := json.Unmarshal(elem, &values[i]); err != nil {
			return nil, true, caseerr.Wrap(caseerr.ParseError, b.path,
				fmt.Sprintf("entry %d: %q element %d must be a string", b.index, field, i), err)
		}
	}
	return values, true, nil
}

// String returns the string stored under field. ok is false when the key is
// absent or null; any other non-string value is a ParseError.
func (b *TestCaseBody) String(field string) (value string, ok bool, err error) {
	raw, ok := b.fields[field]
	if !ok || isNull(raw) {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, caseerr.Wrap(caseerr.ParseError, b.path,
			fmt.Sprintf("entry %d: %q must be a string", b.index, field), err)
	}
	return value, true, nil
}

// IsManual reports whether the body is flagged is_manual. Absent or null
// counts as false; a non-boolean value is a ParseError.
func (b *TestCaseBody) IsManual() (bool, error) {
	raw, ok := b.fields[FieldIsManual]
	if !ok || isNull(raw) {
		return false, nil
	}
	var manual bool
	if err := json.Unmarshal(raw, &manual); err != nil {
		return false, caseerr.Wrap(caseerr.ParseError, b.path,
			fmt.Sprintf("entry %d: %q must be a boolean", b.index, FieldIsManual), err)
	}
	return manual, nil
}

// FullName joins test_suite, test_category and test_title with single
// spaces. Absent fields contribute empty strings.
func (b *TestCaseBody) FullName() (string, error) {
	parts := make([]string, 0, 3)
	for _, field := range []string{FieldTestSuite, FieldTestCategory, FieldTestTitle} {
		v, _, err := b.String(field)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, " "), nil
}

// CertificationProgram returns the certification_program values.
func (b *TestCaseBody) CertificationProgram() ([]string, bool, error) {
	return b.Strings(FieldCertificationProgram)
}

// Capabilities returns the capabilities values.
func (b *TestCaseBody) Capabilities() ([]string, bool, error) {
	return b.Strings(FieldCapabilities)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
