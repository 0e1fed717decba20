// Command wire-tool is the correction CLI from spec §6: load a wire
// geometry file, optionally correct it to a requested level, optionally
// validate it, and optionally dump the (possibly corrected) result.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wirecell/wct-core/internal/searchpath"
	"github.com/wirecell/wct-core/internal/wcerr"
	"github.com/wirecell/wct-core/internal/wireschema"
)

// levelFromFlag maps the CLI's -c {1..4} to a wireschema.Level, matching
// the ladder order: 1=load, 2=order, 3=direction, 4=pitch.
func levelFromFlag(c int) (wireschema.Level, error) {
	switch c {
	case 1:
		return wireschema.Loaded, nil
	case 2:
		return wireschema.Order, nil
	case 3:
		return wireschema.Direction, nil
	case 4:
		return wireschema.Pitch, nil
	default:
		return wireschema.Empty, fmt.Errorf("invalid -c level %d: must be 1-4", c)
	}
}

func run(c *cli.Context) error {
	in := c.Args().First()
	if in == "" {
		return cli.Exit("wire-tool: missing input geometry file", 2)
	}
	out := c.String("out")
	corrLevel := c.Int("correct")
	validate := c.Bool("validate")
	failFast := c.Bool("fail-fast")
	eps := c.Float64("epsilon")
	searchPathStr := c.String("path")

	sp := searchpath.Parse(searchPathStr)
	resolved, err := sp.Resolve(in)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	store, err := wireschema.Load(resolved)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if out != "" {
		if corrLevel > 0 {
			level, err := levelFromFlag(corrLevel)
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}
			store, err = wireschema.Correct(store, level)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
		}
		if validate {
			if err := wireschema.Validate(store, eps, failFast); err != nil {
				return cli.Exit(err.Error(), 1)
			}
		}
		if err := wireschema.Dump(out, store); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}

	// No -o: corrections are not applied. If -v was requested, validate the
	// loaded (no-correction) file as-is.
	if validate {
		if err := wireschema.Validate(store, eps, failFast); err != nil {
			return cli.Exit(err.Error(), 1)
		}
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:  "wire-tool",
		Usage: "load, correct, validate, and dump wire geometry files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output geometry file path"},
			&cli.IntFlag{Name: "correct", Aliases: []string{"c"}, Usage: "correction level to apply before dump (1=load 2=order 3=direction 4=pitch)"},
			&cli.BoolFlag{Name: "validate", Aliases: []string{"v"}, Usage: "validate the geometry"},
			&cli.BoolFlag{Name: "fail-fast", Aliases: []string{"f"}, Usage: "abort validation at the first failure instead of aggregating"},
			&cli.Float64Flag{Name: "epsilon", Aliases: []string{"e"}, Value: 1e-6, Usage: "relative tolerance for validation"},
			&cli.StringFlag{Name: "path", Aliases: []string{"P"}, Usage: "colon-separated search path for resolving the input file"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		if wcerr.Is(err, wcerr.Value) || wcerr.Is(err, wcerr.IO) || wcerr.Is(err, wcerr.Index) || wcerr.Is(err, wcerr.Runtime) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, err)
		if ec, ok := err.(cli.ExitCoder); ok {
			os.Exit(ec.ExitCode())
		}
		os.Exit(1)
	}
}
