package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/minic-lang/minic"
	"github.com/minic-lang/minic/internal/lexer"
)

func main() {
	app := &cli.App{
		Name:  "minic",
		Usage: "compile and run a restricted C-like translation unit",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "compile a source file and exit with the program's status",
				ArgsUsage: "<file.c>",
				Action:    runCmd,
			},
			{
				Name:      "tokens",
				Usage:     "dump the token stream of a source file",
				ArgsUsage: "<file.c>",
				Action:    tokensCmd,
			},
			{
				Name:      "ops",
				Usage:     "dump the generated operations per function",
				ArgsUsage: "<file.c>",
				Action:    opsCmd,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readSource(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected exactly one source file")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return "", errors.Wrap(err, "reading source")
	}
	return string(data), nil
}

func runCmd(c *cli.Context) error {
	src, err := readSource(c)
	if err != nil {
		return err
	}
	status, err := minic.Run(src)
	if err != nil {
		return err
	}
	os.Exit(status)
	return nil
}

func tokensCmd(c *cli.Context) error {
	src, err := readSource(c)
	if err != nil {
		return err
	}
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return err
	}
	for _, t := range toks {
		fmt.Printf("%v %q at %v\n", t.Type, t.Lex, t.Pos)
	}
	return nil
}

func opsCmd(c *cli.Context) error {
	src, err := readSource(c)
	if err != nil {
		return err
	}
	prog, err := minic.Compile(src)
	if err != nil {
		return err
	}
	mod := prog.Module()
	names := make([]string, 0, len(mod.Funcs))
	for name := range mod.Funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := mod.Funcs[name]
		fmt.Printf("%s: frame=%d params=%d\n", name, f.FrameSize, len(f.Params))
		for pc, in := range f.Code {
			fmt.Printf("  %3d  %v\n", pc, in)
		}
	}
	return nil
}
