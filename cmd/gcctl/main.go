// ABOUTME: gcctl runs heap scripts against a fresh runtime and reports what the collector did
// ABOUTME: Flags choose the settings file, the script source and colored output

// Gcctl drives the incremental collector from a small command language.
//
// Usage:
//
//	gcctl [-config file.yaml] [-script file.gc] [-no-color]
//
// With no -script the commands are read from standard input, one per
// line. Run the help command for the list.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/prateek/tricolor/config"
	"github.com/prateek/tricolor/object"
)

var (
	configFlag  = flag.String("config", "", "collector settings `file` (YAML)")
	scriptFlag  = flag.String("script", "", "read commands from `file` instead of standard input")
	noColorFlag = flag.Bool("no-color", false, "disable colored output")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: gcctl [flags]\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("gcctl: ")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		usage()
	}

	opts := options{config: *configFlag, script: os.Stdin, log: os.Stderr}
	if *scriptFlag != "" {
		f, err := os.Open(*scriptFlag)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		opts.script = f
	}
	opts.out, opts.color = output(*noColorFlag)

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

// output picks the stdout writer; color is used only on terminals.
func output(noColor bool) (io.Writer, bool) {
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if noColor || !tty || os.Getenv("NO_COLOR") != "" {
		return colorable.NewNonColorable(os.Stdout), false
	}
	return colorable.NewColorableStdout(), true
}

type options struct {
	config string
	script io.Reader
	out    io.Writer
	log    io.Writer
	color  bool
}

func run(opts options) error {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return err
		}
	}
	logger := cfg.Logger(opts.log)

	s, err := object.New(cfg.GC(logger))
	if err != nil {
		return err
	}
	in := newInterp(s, opts.out, opts.color)
	err = in.Run(opts.script)
	return errors.Join(err, s.Close())
}
