// Command uuu runs uuu programs, or starts an interactive session when no
// file is given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/thomasrohde/uuu/pkg/config"
	"github.com/thomasrohde/uuu/pkg/diagnostics"
	"github.com/thomasrohde/uuu/pkg/evaluator"
	"github.com/thomasrohde/uuu/pkg/help"
	"github.com/thomasrohde/uuu/pkg/lexer"
	"github.com/thomasrohde/uuu/pkg/runtime"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitStatic  = 2
	exitRuntime = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	pretty     bool
	check      bool
	ast        bool
	tokens     bool
	debug      bool
	help       bool
	tracePath  string
	summary    string
	configPath string
}

// run is the whole CLI behind main, parameterized over its streams.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("uuu", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, help.QUICKREF) }
	fs.BoolVar(&opts.pretty, "pretty", false, "human-readable diagnostics")
	fs.BoolVar(&opts.check, "check", false, "parse and resolve only")
	fs.BoolVar(&opts.ast, "ast", false, "print the debug AST and exit")
	fs.BoolVar(&opts.tokens, "tokens", false, "print the token stream and exit")
	fs.BoolVar(&opts.debug, "debug", false, "debug logging to stderr")
	fs.BoolVar(&opts.help, "help", false, "show help")
	fs.StringVar(&opts.tracePath, "trace", "", "write JSONL trace events to `path`")
	fs.StringVar(&opts.summary, "summary", "", "summarize a JSONL trace `file` and exit")
	fs.StringVar(&opts.configPath, "config", "", "configuration `file`")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if opts.help {
		return cmdHelp(fs.Args(), stdout, stderr)
	}
	if opts.summary != "" {
		return cmdSummary(opts.summary, opts.pretty, stdout, stderr)
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "usage: uuu [flags] [file.uuu]")
		return exitUsage
	}
	if fs.NArg() == 0 && (opts.check || opts.ast || opts.tokens) {
		fmt.Fprintln(stderr, "error: --check, --ast and --tokens need a file argument (use - for stdin)")
		return exitUsage
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return exitUsage
	}
	opts.pretty = opts.pretty || cfg.Pretty
	opts.debug = opts.debug || cfg.Debug

	rtOpts := []runtime.Option{
		runtime.WithStdout(stdout),
		runtime.WithLogger(newLogger(opts.debug, stderr)),
	}
	if cfg.MaxCallDepth > 0 {
		rtOpts = append(rtOpts, runtime.WithMaxCallDepth(cfg.MaxCallDepth))
	}
	if opts.tracePath != "" {
		tw, err := openTrace(opts.tracePath)
		if err != nil {
			fmt.Fprintf(stderr, "error: cannot open trace file: %s\n", err)
			return exitUsage
		}
		defer tw.Close()
		rtOpts = append(rtOpts, runtime.WithTrace(tw.Write), runtime.WithRunID(newRunID()))
	}
	rt := runtime.New(rtOpts...)

	if fs.NArg() == 0 {
		return startREPL(rt, cfg, opts.pretty, stdout, stderr)
	}

	source, filename, code := readSource(fs.Arg(0), stdin, opts.pretty, stderr)
	if code != exitOK {
		return code
	}

	switch {
	case opts.tokens:
		return cmdTokens(source, filename, opts.pretty, stdout, stderr)
	case opts.ast:
		out, err := rt.Format(source, filename)
		if err != nil {
			return reportError(err, opts.pretty, stderr)
		}
		fmt.Fprint(stdout, out)
		return exitOK
	case opts.check:
		if diags := rt.Check(source, filename); len(diags) > 0 {
			fmt.Fprintln(stderr, diagnostics.FormatDiagnostics(diags, opts.pretty))
			return exitStatic
		}
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rt.Run(ctx, source, filename); err != nil {
		return reportError(err, opts.pretty, stderr)
	}
	return exitOK
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

func newLogger(debug bool, stderr io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func cmdHelp(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stdout, help.QUICKREF)
		return exitOK
	}
	name, content, err := help.MatchTopic(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return exitUsage
	}
	fmt.Fprint(stdout, content)
	if name == "natives" {
		fmt.Fprint(stdout, "\n"+help.NativesIndex())
	}
	return exitOK
}

func cmdTokens(source, filename string, pretty bool, stdout, stderr io.Writer) int {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		return reportError(err, pretty, stderr)
	}
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Type.String()
		if tok.Type == lexer.TokIdent || tok.Type == lexer.TokNumberLit || tok.Type == lexer.TokStringLit {
			parts[i] += "(" + tok.Value + ")"
		}
	}
	fmt.Fprintln(stdout, strings.Join(parts, " "))
	return exitOK
}

func readSource(file string, stdin io.Reader, pretty bool, stderr io.Writer) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "error reading stdin: %s\n", err)
			return "", "", exitUsage
		}
		return string(data), "<stdin>", exitOK
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", exitUsage
	}
	return string(source), file, exitOK
}

// reportError prints err as diagnostics and returns the matching exit code.
func reportError(err error, pretty bool, stderr io.Writer) int {
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return exitStatic
	}
	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{lexErr.Diag}, pretty))
		return exitStatic
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{rtErr.Diagnostic()}, pretty))
		return exitRuntime
	}
	diag := diagnostics.MakeDiag(diagnostics.EInternal, err.Error(), nil, "")
	fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
	return exitRuntime
}
