package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/uuu/pkg/config"
	"github.com/thomasrohde/uuu/pkg/help"
	"github.com/thomasrohde/uuu/pkg/parser"
	"github.com/thomasrohde/uuu/pkg/runtime"
)

const (
	replFile   = "<repl>"
	promptCont = "... "
)

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func startREPL(rt *runtime.Runtime, cfg *config.Config, pretty bool, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "uuu %s (:help for help, :quit to exit)\n", help.Version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if cfg.History != "" {
		if f, err := os.Open(cfg.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := os.MkdirAll(filepath.Dir(cfg.History), 0o755); err != nil {
				return
			}
			if f, err := os.Create(cfg.History); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	return repl(rt, ln, cfg.Prompt, pretty, stdout, stderr)
}

// repl reads and runs inputs until EOF or :quit. Errors abandon only the
// current input; a read failure other than EOF or Ctrl-C is fatal.
func repl(rt *runtime.Runtime, lr lineReader, prompt string, pretty bool, stdout, stderr io.Writer) int {
	for {
		code, err := readInput(lr, prompt)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(stdout)
			return exitOK
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			fmt.Fprintf(stderr, "error: %s\n", err)
			return exitUsage
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		lr.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(rt, trimmed, pretty, stdout, stderr); quit {
				return exitOK
			}
			continue
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = rt.Run(ctx, code, replFile)
		stop()
		if err != nil {
			reportError(err, pretty, stderr)
		}
	}
}

// readInput collects lines until they parse or fail for a reason other
// than running out of input.
func readInput(lr lineReader, prompt string) (string, error) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := lr.Prompt(p)
		if err != nil {
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), nil
			}
			return "", err
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, nil
		}
		if _, diags := parser.Parse(src, replFile); parser.IsIncomplete(diags) {
			continue
		}
		return src, nil
	}
}

// replCommand handles a ':' command and reports whether the session ends.
func replCommand(rt *runtime.Runtime, input string, pretty bool, stdout, stderr io.Writer) bool {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		if arg == "" {
			fmt.Fprint(stdout, help.QUICKREF)
			return false
		}
		_, content, err := help.MatchTopic(arg)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", err)
			return false
		}
		fmt.Fprint(stdout, content)
	case ":ast":
		out, err := rt.Format(arg, replFile)
		if err != nil {
			reportError(err, pretty, stderr)
			return false
		}
		fmt.Fprint(stdout, out)
	default:
		fmt.Fprintf(stderr, "unknown command %s. Type :help for help.\n", cmd)
	}
	return false
}
