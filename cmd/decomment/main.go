package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/strongdm/decomment/internal/decomment"
	"github.com/strongdm/decomment/internal/version"
)

func signalCancelContext() (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(context.Background())
	sigCh := make(chan os.Signal, 1)
	stopCh := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for {
			select {
			case sig := <-sigCh:
				cancel(fmt.Errorf("stopped by signal %s", sig.String()))
			case <-stopCh:
				return
			}
		}
	}()
	cleanup := func() {
		signal.Stop(sigCh)
		close(stopCh)
		cancel(nil)
	}
	return ctx, cleanup
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("decomment %s\n", version.Version)
		os.Exit(0)
	case "batch":
		batchCmd(os.Args[2:])
	default:
		decommentFile(os.Args[1:])
	}
}

func usage() {
	dialects := strings.Join(decomment.DialectNames(), "|")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintf(os.Stderr, "  decomment <infile> <outfile> <%s>\n", dialects)
	fmt.Fprintln(os.Stderr, "  decomment batch --manifest <file.yaml> [--report <file.json>] [--json] [--verbose]")
	fmt.Fprintf(os.Stderr, "  decomment batch --dialect <%s> [--out-dir <dir>] [--suffix <suffix>] [--report <file.json>] [--json] [--verbose] <glob> [<glob> ...]\n", dialects)
	fmt.Fprintln(os.Stderr, "  decomment --version")
}

// decommentFile handles the positional form: infile outfile dialect. An
// unknown dialect is a usage error and leaves outfile untouched.
func decommentFile(args []string) {
	if len(args) != 3 {
		usage()
		os.Exit(1)
	}
	inPath, outPath, dialectName := args[0], args[1], args[2]
	dialect, err := decomment.ParseDialect(dialectName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}

	src, err := os.ReadFile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	out, err := decomment.Transform(string(src), dialect)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
