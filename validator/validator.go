// Package validator runs the uppercase naming convention over every
// discovered resource.
//
// Each configured field gets its own pass over the resources, in discovery
// order. In fail-fast mode a pass stops at the first violation; in
// exhaustive mode it collects every violation before failing. Parse and IO
// errors always abort the pass they occur in.
//
// With Unique set, two more passes run after the field passes: one rejects
// a test_case_id seen in more than one entry across all resources, the other
// rejects two non-manual cases whose test_suite, test_category and
// test_title join to the same name, ignoring case.
package validator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lattice-substrate/json-casegate/caseerr"
	"github.com/lattice-substrate/json-casegate/casing"
	"github.com/lattice-substrate/json-casegate/document"
	"github.com/lattice-substrate/json-casegate/jsonc"
	"github.com/lattice-substrate/json-casegate/resource"
)

// Mode selects how a pass reacts to a violation.
type Mode string

const (
	ModeFailFast   Mode = "fail-fast"
	ModeExhaustive Mode = "exhaustive"
)

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFailFast, "":
		return ModeFailFast, nil
	case ModeExhaustive:
		return ModeExhaustive, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %s or %s)", s, ModeFailFast, ModeExhaustive)
	}
}

// DefaultFields are the body fields checked when none are configured.
var DefaultFields = []string{document.FieldCertificationProgram, document.FieldCapabilities}

// Names of the uniqueness passes, used as PassResult.Field.
const (
	PassUniqueIDs   = document.KeyTestCaseID
	PassUniqueNames = "full_name"
)

// Violation is one value that is not entirely uppercase, or, when
// FirstSeen is set, a value that repeats one found at FirstSeen.
type Violation struct {
	Path      string
	Entry     int
	Field     string
	Value     string
	FirstSeen string
}

func (v Violation) String() string {
	return v.Path + ": " + v.message()
}

// Err returns v as a classified ValidationError.
func (v Violation) Err() error {
	return caseerr.New(caseerr.ValidationError, v.Path, v.message())
}

func (v Violation) message() string {
	if v.FirstSeen != "" {
		return fmt.Sprintf("entry %d: duplicate %s %q (first seen at %s)", v.Entry, v.Field, v.Value, v.FirstSeen)
	}
	return fmt.Sprintf("entry %d: %s: expected %q to be entirely uppercase", v.Entry, v.Field, v.Value)
}

// CheckField verifies field in every body of doc and returns the first
// violation as a ValidationError. Bodies without the field pass.
func CheckField(doc *document.Document, field string) error {
	v, err := firstViolation(doc, field)
	if err != nil {
		return err
	}
	if v != nil {
		return v.Err()
	}
	return nil
}

func firstViolation(doc *document.Document, field string) (*Violation, error) {
	for _, tc := range doc.TestCases {
		values, ok, err := tc.Body.Strings(field)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, value := range values {
			if !casing.IsUpper(value) {
				return &Violation{Path: doc.Path, Entry: tc.Index, Field: field, Value: value}, nil
			}
		}
	}
	return nil, nil
}

// FindViolations returns every violation of field in doc, in entry order.
// A malformed field aborts the scan with a ParseError.
func FindViolations(doc *document.Document, field string) ([]Violation, error) {
	var out []Violation
	for _, tc := range doc.TestCases {
		values, ok, err := tc.Body.Strings(field)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		for _, value := range values {
			if !casing.IsUpper(value) {
				out = append(out, Violation{Path: doc.Path, Entry: tc.Index, Field: field, Value: value})
			}
		}
	}
	return out, nil
}

// PassResult is the outcome of one field pass.
type PassResult struct {
	Field      string
	Files      int
	Violations []Violation
	Err        error
}

// OK reports whether the pass succeeded.
func (p PassResult) OK() bool {
	return p.Err == nil
}

// Report is the outcome of a run.
type Report struct {
	RunID  string
	Passes []PassResult
}

// OK reports whether every pass succeeded.
func (r Report) OK() bool {
	for _, p := range r.Passes {
		if !p.OK() {
			return false
		}
	}
	return true
}

// Err combines the errors of all failed passes, or returns nil.
func (r Report) Err() error {
	var err error
	for _, p := range r.Passes {
		if p.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", p.Field, p.Err))
		}
	}
	return err
}

// Violations returns the violations of all passes in pass order.
func (r Report) Violations() []Violation {
	var out []Violation
	for _, p := range r.Passes {
		out = append(out, p.Violations...)
	}
	return out
}

// Validator checks the resources of Source.
type Validator struct {
	Source resource.Source
	Fields []string
	Mode   Mode
	Unique bool
	Logger *zap.Logger
}

type loaded struct {
	doc *document.Document
	err error
}

// Run lists the resources once and runs one pass per field.
func (v *Validator) Run() Report {
	report := Report{RunID: uuid.NewString()}
	log := v.logger().With(zap.String("run_id", report.RunID))

	fields := v.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	resources, listErr := v.Source.List()
	if listErr != nil {
		log.Debug("listing resources failed", zap.Error(listErr))
	}
	cache := make([]*loaded, len(resources))

	type pass struct {
		name string
		run  func() PassResult
	}
	var passes []pass
	for _, field := range fields {
		passes = append(passes, pass{field, func() PassResult { return v.runPass(log, field, resources, cache) }})
	}
	if v.Unique {
		passes = append(passes,
			pass{PassUniqueIDs, func() PassResult { return v.runUniquePass(log, PassUniqueIDs, entryID, resources, cache) }},
			pass{PassUniqueNames, func() PassResult { return v.runUniquePass(log, PassUniqueNames, entryFullName, resources, cache) }},
		)
	}

	for _, p := range passes {
		var result PassResult
		if listErr != nil {
			result = PassResult{Field: p.name, Err: listErr}
		} else {
			result = p.run()
		}
		log.Info("pass finished",
			zap.String("field", p.name),
			zap.Int("files", result.Files),
			zap.Int("violations", len(result.Violations)),
			zap.Bool("ok", result.OK()))
		report.Passes = append(report.Passes, result)
	}
	return report
}

func (v *Validator) load(log *zap.Logger, i int, resources []resource.Resource, cache []*loaded) *loaded {
	if cache[i] == nil {
		res := resources[i]
		doc, err := document.Load(res.Path, res.Data)
		cache[i] = &loaded{doc: doc, err: err}
		log.Debug("loaded resource",
			zap.String("path", res.Path),
			zap.Int("comment_lines", len(jsonc.CommentLines(res.Data))),
			zap.Error(err))
	}
	return cache[i]
}

func (v *Validator) runPass(log *zap.Logger, field string, resources []resource.Resource, cache []*loaded) PassResult {
	pass := PassResult{Field: field}
	for i := range resources {
		l := v.load(log, i, resources, cache)
		pass.Files++
		if l.err != nil {
			pass.Err = multierr.Append(violationErrs(pass.Violations), l.err)
			return pass
		}

		if v.Mode == ModeExhaustive {
			found, err := FindViolations(l.doc, field)
			pass.Violations = append(pass.Violations, found...)
			if err != nil {
				pass.Err = multierr.Append(violationErrs(pass.Violations), err)
				return pass
			}
			continue
		}

		first, err := firstViolation(l.doc, field)
		if err != nil {
			pass.Err = err
			return pass
		}
		if first != nil {
			pass.Violations = []Violation{*first}
			pass.Err = first.Err()
			return pass
		}
	}
	pass.Err = violationErrs(pass.Violations)
	return pass
}

// uniqueKey extracts the value a uniqueness pass compares. skip is true for
// entries that do not take part; key is the comparison form of value.
type uniqueKey func(tc document.TestCaseEntry) (key, value string, skip bool, err error)

func entryID(tc document.TestCaseEntry) (string, string, bool, error) {
	id, ok, err := tc.ID()
	if err != nil || !ok {
		return "", "", true, err
	}
	return id, id, false, nil
}

func entryFullName(tc document.TestCaseEntry) (string, string, bool, error) {
	manual, err := tc.Body.IsManual()
	if err != nil || manual {
		return "", "", true, err
	}
	name, err := tc.Body.FullName()
	if err != nil {
		return "", "", true, err
	}
	return strings.ToLower(name), name, false, nil
}

func (v *Validator) runUniquePass(log *zap.Logger, name string, keyOf uniqueKey, resources []resource.Resource, cache []*loaded) PassResult {
	pass := PassResult{Field: name}
	seen := make(map[string]string)
	for i := range resources {
		l := v.load(log, i, resources, cache)
		pass.Files++
		if l.err != nil {
			pass.Err = multierr.Append(violationErrs(pass.Violations), l.err)
			return pass
		}
		for _, tc := range l.doc.TestCases {
			key, value, skip, err := keyOf(tc)
			if err != nil {
				pass.Err = multierr.Append(violationErrs(pass.Violations), err)
				return pass
			}
			if skip {
				continue
			}
			here := fmt.Sprintf("%s: entry %d", l.doc.Path, tc.Index)
			first, dup := seen[key]
			if !dup {
				seen[key] = here
				continue
			}
			pass.Violations = append(pass.Violations, Violation{
				Path: l.doc.Path, Entry: tc.Index, Field: name, Value: value, FirstSeen: first,
			})
			if v.Mode != ModeExhaustive {
				pass.Err = violationErrs(pass.Violations)
				return pass
			}
		}
	}
	pass.Err = violationErrs(pass.Violations)
	return pass
}

func violationErrs(vs []Violation) error {
	var err error
	for _, v := range vs {
		err = multierr.Append(err, v.Err())
	}
	return err
}

func (v *Validator) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}
