package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/yonwoo9/minicask"
)

const usage = `minicask - embedded log-structured key-value store

Usage:
  minicask set <key> <value>   store a value under a key
  minicask get <key>           print the value for a key
  minicask rm <key>            remove a key

Options (between the command and the key):
  -dir path   data directory (default ".")
  -v          log store activity to stderr
`

func main() {
	if len(os.Args) < 2 {
		os.Exit(1)
	}

	switch os.Args[1] {
	case "get":
		runGet(os.Args[2:])
	case "set":
		runSet(os.Args[2:])
	case "rm":
		runRemove(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	dir := fs.String("dir", ".", "data directory")
	verbose := fs.Bool("v", false, "log store activity to stderr")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minicask get [-dir path] <key>")
		os.Exit(1)
	}

	store := mustOpen(*dir, *verbose)
	defer store.Close()

	value, ok, err := store.Get(fs.Arg(0))
	if err != nil {
		fatal(err)
	}
	if !ok {
		fmt.Println("Key not found")
		return
	}
	fmt.Println(value)
}

func runSet(args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	dir := fs.String("dir", ".", "data directory")
	verbose := fs.Bool("v", false, "log store activity to stderr")
	fs.Parse(args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: minicask set [-dir path] <key> <value>")
		os.Exit(1)
	}

	store := mustOpen(*dir, *verbose)
	defer store.Close()

	if err := store.Set(fs.Arg(0), fs.Arg(1)); err != nil {
		fatal(err)
	}
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	dir := fs.String("dir", ".", "data directory")
	verbose := fs.Bool("v", false, "log store activity to stderr")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: minicask rm [-dir path] <key>")
		os.Exit(1)
	}

	store := mustOpen(*dir, *verbose)

	if err := store.Remove(fs.Arg(0)); err != nil {
		store.Close()
		if errors.Is(err, minicask.ErrKeyNotFound) {
			fmt.Println("Key not found")
			os.Exit(1)
		}
		fatal(err)
	}
	store.Close()
}

func mustOpen(dir string, verbose bool) *minicask.Store {
	var opts []minicask.ConfOption
	if verbose {
		opts = append(opts, minicask.Logger(log.Logger{
			Level:  log.DebugLevel,
			Writer: &log.ConsoleWriter{ColorOutput: true},
		}))
	}
	store, err := minicask.Open(dir, opts...)
	if err != nil {
		fatal(err)
	}
	return store
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
