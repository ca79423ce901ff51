// Command jsoncase checks that the certification_program and capabilities
// values of JSON resource files are entirely uppercase.
//
// Usage:
//
//	jsoncase [--config FILE] [--exhaustive] [--unique] [--quiet] [root ...]
//
// With no arguments every .json file under the working directory is checked.
// Full-line "//" comments in the files are ignored. The config file in use is
// never checked itself. --unique also rejects repeated test_case_id values
// and repeated test names across all files.
//
// Exit codes:
//
//	0  all checks passed
//	2  naming violation, invalid JSON, bad configuration, or usage error
//	10 IO or internal error
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/lattice-substrate/json-casegate/caseerr"
	"github.com/lattice-substrate/json-casegate/config"
	"github.com/lattice-substrate/json-casegate/logging"
	"github.com/lattice-substrate/json-casegate/resource"
	"github.com/lattice-substrate/json-casegate/validator"
)

const (
	exitSuccess  = 0
	exitInvalid  = 2
	exitInternal = 10
)

const usage = "usage: jsoncase [--config FILE] [--exhaustive] [--unique] [--quiet] [root ...]"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type flags struct {
	config     string
	exhaustive bool
	unique     bool
	quiet      bool
	help       bool
}

func parseFlags(args []string) (flags, []string, error) {
	var f flags
	var positional []string
	consumeAsPositional := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if consumeAsPositional {
			positional = append(positional, arg)
			continue
		}

		switch {
		case arg == "--exhaustive":
			f.exhaustive = true
		case arg == "--unique":
			f.unique = true
		case arg == "--quiet" || arg == "-q":
			f.quiet = true
		case arg == "--help" || arg == "-h":
			f.help = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags{}, nil, fmt.Errorf("option %s requires a value", arg)
			}
			i++
			f.config = args[i]
		case strings.HasPrefix(arg, "--config="):
			f.config = strings.TrimPrefix(arg, "--config=")
		case arg == "--":
			consumeAsPositional = true
		default:
			if strings.HasPrefix(arg, "-") {
				return flags{}, nil, fmt.Errorf("unknown option: %s", arg)
			}
			positional = append(positional, arg)
		}
	}
	return f, positional, nil
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	fl, positional, err := parseFlags(args)
	if err != nil {
		if werr := writef(stderr, "error: %v\n%s\n", err, usage); werr != nil {
			return exitInternal
		}
		return exitInvalid
	}
	if fl.help {
		if err := writeHelp(stdout); err != nil {
			return exitInternal
		}
		return exitSuccess
	}

	cfg, err := config.Load(fl.config)
	if err != nil {
		return writeClassifiedError(stderr, err)
	}
	if fl.exhaustive {
		cfg.Mode = string(validator.ModeExhaustive)
	}
	if fl.unique {
		cfg.Unique = true
	}
	if len(positional) > 0 {
		cfg.Roots = positional
	}

	mode, err := validator.ParseMode(cfg.Mode)
	if err != nil {
		return writeClassifiedError(stderr, caseerr.Wrap(caseerr.ConfigError, "", "mode", err))
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		return writeClassifiedError(stderr, caseerr.Wrap(caseerr.ConfigError, "", "logger", err))
	}
	defer func() {
		_ = log.Sync()
	}()

	var skip []string
	if cfg.File != "" {
		skip = append(skip, cfg.File)
	}
	v := &validator.Validator{
		Source: resource.Tree{
			Roots:   cfg.Roots,
			Options: resource.Options{Extensions: cfg.Extensions, Exclude: cfg.Exclude},
			Skip:    skip,
			Logger:  log,
		},
		Fields: cfg.Fields,
		Mode:   mode,
		Unique: cfg.Unique,
		Logger: log,
	}
	report := v.Run()
	return writeReport(stdout, stderr, report, fl.quiet)
}

func writeReport(stdout, stderr io.Writer, report validator.Report, quiet bool) int {
	if report.OK() {
		if quiet {
			return exitSuccess
		}
		files := 0
		if len(report.Passes) > 0 {
			files = report.Passes[0].Files
		}
		if err := writef(stdout, "ok: %d files, %d checks\n", files, len(report.Passes)); err != nil {
			return exitInternal
		}
		return exitSuccess
	}

	code := exitSuccess
	errCount := 0
	for _, pass := range report.Passes {
		for _, v := range pass.Violations {
			if err := writeLine(stderr, v.String()); err != nil {
				return exitInternal
			}
		}
		for _, err := range multierr.Errors(pass.Err) {
			class := caseerr.ClassOf(err)
			if c := class.ExitCode(); c > code {
				code = c
			}
			if class == caseerr.ValidationError {
				continue
			}
			errCount++
			if werr := writef(stderr, "error: %s: %v\n", pass.Field, err); werr != nil {
				return exitInternal
			}
		}
	}
	if err := writef(stderr, "FAIL: %d violations, %d errors\n", len(report.Violations()), errCount); err != nil {
		return exitInternal
	}
	return code
}

func writeClassifiedError(stderr io.Writer, err error) int {
	code := caseerr.ClassOf(err).ExitCode()
	if werr := writef(stderr, "error: %v\n", err); werr != nil {
		return exitInternal
	}
	return code
}

func writeHelp(w io.Writer) error {
	if err := writeLine(w, usage); err != nil {
		return err
	}
	if err := writeLine(w, "  Check that certification_program and capabilities values in JSON files are uppercase."); err != nil {
		return err
	}
	if err := writeLine(w, "  --config FILE  Load settings from FILE instead of discovering .jsoncase.{toml,yaml,yml,json}"); err != nil {
		return err
	}
	if err := writeLine(w, "  --exhaustive   Report every violation instead of stopping at the first per field"); err != nil {
		return err
	}
	if err := writeLine(w, "  --unique       Also reject repeated test_case_id values and test names across files"); err != nil {
		return err
	}
	return writeLine(w, "  --quiet        Suppress the success summary")
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
