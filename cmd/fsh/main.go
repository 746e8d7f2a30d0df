// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// fsh is a small interactive shell: sequences, pipelines, redirections,
// background jobs and variables, running external programs.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mvdan.cc/fsh"
	"mvdan.cc/fsh/internal/config"
	"mvdan.cc/fsh/interp"
	"mvdan.cc/fsh/parser"
	"mvdan.cc/fsh/vars"
)

var errColor = color.New(color.FgRed, color.Bold)

func main() {
	os.Exit(main1())
}

func main1() int {
	err := newRootCmd().ExecuteContext(context.Background())
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status)
	}
	if err != nil {
		report(os.Stderr, err)
		return 1
	}
	return 0
}

func report(w io.Writer, err error) {
	errColor.Fprintf(w, "fsh: %v\n", err)
}

type flags struct {
	command    string
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "fsh [flags] [file...]",
		Short: "A small interactive shell",
		Long: `fsh runs commands read from a terminal, from files, or from the -c flag.

It supports sequences, pipelines, redirections, background jobs with &,
variable assignments and glob patterns. The builtins are cd, exit, abort
and printenv.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), f, args)
		},
	}
	root.Flags().StringVarP(&f.command, "command", "c", "", "command to be executed")
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "configuration file")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.AddCommand(newConfigCmd(&f))
	return root
}

func newConfigCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*f)
			if err != nil {
				return err
			}
			data, err := cfg.TOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func loadConfig(f flags) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}

func runRoot(ctx context.Context, f flags, args []string) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "fsh", Level: level})

	store := &vars.Store{}
	if cfg.InheritEnv {
		store.Inherit(os.Environ())
	}
	if cfg.VarsFile != "" {
		loaded, err := vars.Load(cfg.VarsFile)
		switch {
		case err == nil:
			loaded.Each(func(name, value string) bool {
				store.Insert(name, value)
				return true
			})
		case errors.Is(err, fsh.NotFound):
		default:
			logger.Warn("could not load variables", "err", err)
		}
		defer func() {
			if err := store.Save(cfg.VarsFile); err != nil {
				logger.Error("could not save variables", "err", err)
			}
		}()
	}

	state, err := interp.New(store,
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
		interp.Logger(logger),
	)
	if err != nil {
		return err
	}
	defer state.Close()

	if f.command != "" {
		return run(ctx, state, strings.NewReader(f.command), "")
	}
	if len(args) == 0 {
		return interactive(ctx, state, os.Stdin, os.Stdout, cfg.Prompt)
	}
	for _, path := range args {
		if err := runPath(ctx, state, path); err != nil {
			return err
		}
	}
	return nil
}

func runPath(ctx context.Context, state *interp.State, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return run(ctx, state, f, path)
}

func run(ctx context.Context, state *interp.State, reader io.Reader, name string) error {
	prog, err := parser.Parse(reader, name)
	if err != nil {
		return err
	}
	return state.Eval(ctx, prog)
}

// byteReader reads a byte at a time, so that scanning a line never consumes
// the input that follows it. Children inheriting stdin read that input.
type byteReader struct{ r io.Reader }

func (b byteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}
	return b.r.Read(p)
}

// interactive evaluates one line at a time. Errors are reported and the loop
// carries on, except for the exit builtin. The prompt is only printed on a
// terminal.
func interactive(ctx context.Context, state *interp.State, in *os.File, out io.Writer, prompt string) error {
	tty := term.IsTerminal(int(in.Fd()))
	var r io.Reader = in
	if !tty {
		r = byteReader{in}
	}
	sc := bufio.NewScanner(r)
	for {
		// Finished background jobs are collected between lines, so that
		// they do not linger until the next pipeline.
		if _, err := state.Reap(); err != nil {
			report(os.Stderr, err)
		}
		if tty {
			fmt.Fprint(out, prompt)
		}
		if !sc.Scan() {
			break
		}
		prog, err := parser.ParseString(sc.Text())
		if err != nil {
			report(os.Stderr, err)
			continue
		}
		if err := state.Eval(ctx, prog); err != nil {
			if _, ok := interp.IsExitStatus(err); ok {
				return err
			}
			report(os.Stderr, err)
		}
	}
	if tty {
		fmt.Fprintln(out)
	}
	return sc.Err()
}
