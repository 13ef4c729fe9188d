package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/afterwise/scriptshader/compiler"
	"github.com/afterwise/scriptshader/vm"
)

// replCmd implements the `repl` command: an interactive session that
// accumulates `function ... {}` declarations (terminated by a blank
// line), compiles them into a fresh image, and lets the user invoke
// `<name> v0 v1 ...` against it. Illustrative only, outside the core
// contract.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Paste or type function declarations, one or more, followed by a
  blank line to compile them. Then invoke a function with
  "<name> v0 v1 ...". Ctrl-D to exit.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start readline: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	session{rl: rl, v: vm.New()}.run()
	return subcommands.ExitSuccess
}

// session holds the REPL's state between lines: the most recently
// compiled image (nil until the first successful compile) and the VM
// used to invoke functions in it.
type session struct {
	rl    *readline.Instance
	v     *vm.VM
	image *compiler.Image
}

func (s session) run() {
	var pending strings.Builder

	for {
		line, err := s.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			pending.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case pending.Len() == 0 && strings.HasPrefix(trimmed, "function"):
			pending.WriteString(line)
			pending.WriteByte('\n')
			s.rl.SetPrompt("... ")

		case pending.Len() > 0 && trimmed == "":
			s.compile(pending.String())
			pending.Reset()
			s.rl.SetPrompt(">>> ")

		case pending.Len() > 0:
			pending.WriteString(line)
			pending.WriteByte('\n')

		case trimmed == "":
			continue

		default:
			s.invoke(trimmed)
		}
	}
}

func (s *session) compile(src string) {
	image, err := compiler.Compile([]byte(src))
	if err != nil {
		fmt.Fprintf(s.rl.Stderr(), "%v\n", err)
		return
	}
	s.image = image
	for _, fn := range image.Functions {
		fmt.Fprintf(s.rl.Stdout(), "compiled %s/%d\n", fn.Name, fn.Argc)
	}
}

func (s *session) invoke(line string) {
	if s.image == nil {
		fmt.Fprintln(s.rl.Stderr(), "💥 no function compiled yet")
		return
	}

	fields := strings.Fields(line)
	name := fields[0]
	n := len(fields) - 1
	if fn, ok := lookupFunction(s.image, name); ok && fn.NumSlots > n {
		n = fn.NumSlots
	}
	vars := make([]float32, n)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			fmt.Fprintf(s.rl.Stderr(), "💥 invalid value %q\n", f)
			return
		}
		vars[i] = float32(v)
	}

	if err := s.v.Call(s.image, name, vars); err != nil {
		fmt.Fprintf(s.rl.Stderr(), "💥 %v\n", err)
		return
	}
	fmt.Fprintf(s.rl.Stdout(), "%s\n", formatVars(vars))
}
