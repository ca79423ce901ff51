// Command jsoncase-gate runs the repository's verification gates in order and
// stops at the first failing one. The last gate is the resource casing check
// itself, so CI can depend on this single command.
//
// Usage:
//
//	jsoncase-gate [--casing-only] [--exhaustive] [--unique] [root ...]
//
// Roots are forwarded to the casing check.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type gateStep struct {
	label string
	args  []string
}

type commandRunner interface {
	Run(ctx context.Context, name string, args []string, stdout io.Writer, stderr io.Writer) error
}

type realRunner struct{}

type gateOptions struct {
	casingOnly bool
	exhaustive bool
	unique     bool
	roots      []string
}

var codeGateSteps = []gateStep{
	{label: "go vet", args: []string{"vet", "./..."}},
	{label: "unit tests", args: []string{"test", "./...", "-count=1", "-timeout=10m"}},
	{label: "conformance", args: []string{"test", "./conformance", "-count=1", "-timeout=5m", "-v"}},
}

func gateSteps(opts gateOptions) []gateStep {
	var steps []gateStep
	if !opts.casingOnly {
		steps = append(steps, codeGateSteps...)
	}
	casing := []string{"run", "./cmd/jsoncase", "--quiet"}
	if opts.exhaustive {
		casing = append(casing, "--exhaustive")
	}
	if opts.unique {
		casing = append(casing, "--unique")
	}
	if len(opts.roots) > 0 {
		casing = append(casing, "--")
		casing = append(casing, opts.roots...)
	}
	return append(steps, gateStep{label: "resource casing", args: casing})
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, realRunner{}))
}

func run(args []string, stdout, stderr io.Writer, runner commandRunner) int {
	var opts gateOptions
	for _, arg := range args {
		switch {
		case arg == "--help" || arg == "-h":
			if err := writeUsage(stdout); err != nil {
				return 1
			}
			return 0
		case arg == "--casing-only":
			opts.casingOnly = true
		case arg == "--exhaustive":
			opts.exhaustive = true
		case arg == "--unique":
			opts.unique = true
		case strings.HasPrefix(arg, "-"):
			if err := writef(stderr, "error: unknown argument %q\n", arg); err != nil {
				return 1
			}
			if err := writeUsage(stderr); err != nil {
				return 1
			}
			return 2
		default:
			opts.roots = append(opts.roots, arg)
		}
	}

	ctx := context.Background()
	steps := gateSteps(opts)
	for i, step := range steps {
		if err := writef(stdout, "[%d/%d] %s\n", i+1, len(steps), step.label); err != nil {
			return 1
		}
		if err := runner.Run(ctx, "go", step.args, stdout, stderr); err != nil {
			if writeErr := writef(stderr, "gate failed: %s: %v\n", step.label, err); writeErr != nil {
				return 1
			}
			return 1
		}
	}

	if err := writeLine(stdout, "all gates passed"); err != nil {
		return 1
	}
	return 0
}

func (realRunner) Run(ctx context.Context, name string, args []string, stdout io.Writer, stderr io.Writer) error {
	// #nosec G204 -- command is fixed; only resource roots come from the caller.
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", name, args, err)
	}
	return nil
}

func writeUsage(w io.Writer) error {
	if err := writeLine(w, "usage: go run ./cmd/jsoncase-gate [--casing-only] [--exhaustive] [--unique] [root ...]"); err != nil {
		return err
	}
	if err := writeLine(w, "runs: vet, tests, conformance, resource casing"); err != nil {
		return err
	}
	return writeLine(w, "resource casing reads .jsoncase.* and JSONCASE_* settings from the working directory")
}

func writeLine(w io.Writer, msg string) error {
	return writef(w, "%s\n", msg)
}

func writef(w io.Writer, format string, args ...any) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}
