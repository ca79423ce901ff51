package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

type fakeRunner struct {
	calls  []string
	failAt int
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, _ io.Writer, _ io.Writer) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %s", name, strings.Join(args, " ")))
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return errors.New("boom")
	}
	return nil
}

func TestRunHelp(t *testing.T) {
	fr := &fakeRunner{}
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run([]string{"--help"}, &out, &errOut, fr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if len(fr.calls) != 0 {
		t.Fatalf("expected no command invocations, got %d", len(fr.calls))
	}
}

func TestRunExecutesAllGates(t *testing.T) {
	fr := &fakeRunner{}
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run(nil, &out, &errOut, fr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d stderr=%q", code, errOut.String())
	}
	if len(fr.calls) != len(codeGateSteps)+1 {
		t.Fatalf("expected %d calls, got %d", len(codeGateSteps)+1, len(fr.calls))
	}
	if last := fr.calls[len(fr.calls)-1]; last != "go run ./cmd/jsoncase --quiet" {
		t.Fatalf("unexpected casing invocation %q", last)
	}
	if !strings.HasSuffix(out.String(), "all gates passed\n") {
		t.Fatalf("unexpected stdout %q", out.String())
	}
}

func TestRunCasingOnlyForwardsRoots(t *testing.T) {
	fr := &fakeRunner{}
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run([]string{"--casing-only", "--exhaustive", "suites", "-"}, &out, &errOut, fr)
	if code != 2 {
		t.Fatalf("expected exit 2 for unknown argument, got %d", code)
	}

	fr = &fakeRunner{}
	code = run([]string{"--casing-only", "--exhaustive", "--unique", "suites", "media"}, &out, &errOut, fr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if len(fr.calls) != 1 {
		t.Fatalf("expected one call, got %v", fr.calls)
	}
	if want := "go run ./cmd/jsoncase --quiet --exhaustive --unique -- suites media"; fr.calls[0] != want {
		t.Fatalf("got %q, want %q", fr.calls[0], want)
	}
}

func TestRunStopsOnFirstFailure(t *testing.T) {
	fr := &fakeRunner{failAt: 2}
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run(nil, &out, &errOut, fr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if len(fr.calls) != 2 {
		t.Fatalf("expected to stop at failing gate, got %d calls", len(fr.calls))
	}
	if !strings.Contains(errOut.String(), "gate failed: unit tests") {
		t.Fatalf("unexpected stderr %q", errOut.String())
	}
}

func TestRunUnknownArgument(t *testing.T) {
	fr := &fakeRunner{}
	var out bytes.Buffer
	var errOut bytes.Buffer
	code := run([]string{"--nope"}, &out, &errOut, fr)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if len(fr.calls) != 0 {
		t.Fatalf("expected no command invocations, got %d", len(fr.calls))
	}
}
