// Package cli parses the honua command line and drives the app facade. It
// owns exit codes and the diffable issue/plan output; everything richer than
// that is a front-end concern outside this repository.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/honua-io/honua/internal/app"
	"github.com/honua-io/honua/internal/validation"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Message
}

// Command is one parsed invocation.
type Command struct {
	Name string // validate, plan or inspect

	App             *app.Config
	ContinueOnError bool

	// inspect flags
	Provider   string
	Connection string
}

const usageText = `
Honua - declarative configuration compiler and service composition engine.

Usage:
  honua validate [options] CONFIG   check a configuration file
  honua plan     [options] CONFIG   show the composition plan
  honua inspect  -provider P -connection C   introspect a data source schema

Options:
`

// Parse processes command-line arguments. It returns the parsed command, a
// boolean indicating a clean early exit (help), or an ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	flagSet := flag.NewFlagSet("honua", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	modeFlag := flagSet.String("mode", "default", "Validation mode: 'syntax', 'default' or 'full'.")
	failFastFlag := flagSet.Bool("fail-fast", false, "Stop validation after the first phase with errors.")
	continueFlag := flagSet.Bool("continue-on-error", false, "Compose best-effort: skip failing services instead of aborting.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Log level: 'debug', 'info', 'warn' or 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Concurrent workers for live data source checks.")
	timeoutFlag := flagSet.Duration("timeout", 10*time.Second, "Per data source timeout for live checks.")
	providerFlag := flagSet.String("provider", "", "Data source provider for inspect.")
	connectionFlag := flagSet.String("connection", "", "Connection string for inspect.")

	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		flagSet.Usage()
		return nil, true, nil
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var mode validation.Mode
	switch strings.ToLower(*modeFlag) {
	case "syntax":
		mode = validation.SyntaxOnly
	case "default":
		mode = validation.Default
	case "full":
		mode = validation.Full
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid mode: must be 'syntax', 'default' or 'full'"}
	}

	cmd := &Command{Name: name, ContinueOnError: *continueFlag,
		Provider: *providerFlag, Connection: *connectionFlag}

	switch name {
	case "validate", "plan":
		if flagSet.NArg() != 1 {
			return nil, false, &ExitError{Code: 2, Message: name + " requires exactly one CONFIG argument"}
		}
		appCfg, err := app.NewConfig(app.Config{
			ConfigPath:   flagSet.Arg(0),
			Mode:         mode,
			FailFast:     *failFastFlag,
			LogFormat:    logFormat,
			LogLevel:     logLevel,
			Workers:      *workersFlag,
			ProbeTimeout: *timeoutFlag,
		})
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cmd.App = appCfg
	case "inspect":
		if *providerFlag == "" || *connectionFlag == "" {
			return nil, false, &ExitError{Code: 2, Message: "inspect requires -provider and -connection"}
		}
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", name)}
	}

	return cmd, false, nil
}
