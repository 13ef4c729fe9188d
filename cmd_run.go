package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"github.com/afterwise/scriptshader/compiler"
	"github.com/afterwise/scriptshader/vm"
)

// runCmd implements the `run` command: compile a script file and
// invoke one or more named functions against caller-supplied initial
// variable vectors, printing the before/after state.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile a script and invoke named functions" }
func (*runCmd) Usage() string {
	return `run <file> [name@v0,v1,...]...:
  Compile <file> and invoke each named function with the given initial
  variable vector, printing the variables before and after the call.
  With no function arguments, runs the sample.c-style demo calls
  (calcCircleArea, calcSectorArea) if present, otherwise every
  function in the file with a zeroed vector.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 file not provided\n")
		return subcommands.ExitUsageError
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	image, err := compiler.Compile(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	calls, err := parseCalls(image, args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	v := vm.New()
	for _, c := range calls {
		fmt.Printf("%s()\n", c.name)
		fmt.Printf(" before: %s\n", formatVars(c.vars))

		if err := v.Call(image, c.name, c.vars); err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		fmt.Printf(" after:  %s\n", formatVars(c.vars))
	}

	return subcommands.ExitSuccess
}

type call struct {
	name string
	vars []float32
}

// parseCalls builds the list of functions to invoke. Each spec arg has
// the form `name` or `name@v0,v1,...`; missing values default to 0.
// With no args, falls back to the two sample.c demo functions when
// present, else every function in the image with a zeroed vector.
func parseCalls(image *compiler.Image, specs []string) ([]call, error) {
	if len(specs) == 0 {
		return defaultCalls(image), nil
	}

	calls := make([]call, 0, len(specs))
	for _, spec := range specs {
		name, rest, _ := strings.Cut(spec, "@")
		fn, ok := lookupFunction(image, name)
		if !ok {
			return nil, fmt.Errorf("no such function %q", name)
		}

		vars := make([]float32, fn.NumSlots)
		if rest != "" {
			parts := strings.Split(rest, ",")
			for i, p := range parts {
				if i >= len(vars) {
					break
				}
				v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
				if err != nil {
					return nil, fmt.Errorf("invalid value %q for %s: %w", p, name, err)
				}
				vars[i] = float32(v)
			}
		}
		calls = append(calls, call{name: name, vars: vars})
	}
	return calls, nil
}

func defaultCalls(image *compiler.Image) []call {
	demo := []struct {
		name string
		vars []float32
	}{
		{"calcCircleArea", []float32{0, 2}},
		{"calcSectorArea", []float32{0, 2, 3.14159265}},
	}

	var calls []call
	for _, d := range demo {
		if fn, ok := lookupFunction(image, d.name); ok {
			vars := make([]float32, fn.NumSlots)
			copy(vars, d.vars)
			calls = append(calls, call{name: d.name, vars: vars})
		}
	}
	if len(calls) > 0 {
		return calls
	}

	for _, fn := range image.Functions {
		calls = append(calls, call{name: fn.Name, vars: make([]float32, fn.NumSlots)})
	}
	return calls
}

func lookupFunction(image *compiler.Image, name string) (compiler.Function, bool) {
	for _, fn := range image.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return compiler.Function{}, false
}

func formatVars(vars []float32) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
