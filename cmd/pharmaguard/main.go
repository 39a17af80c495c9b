// Command pharmaguard analyzes VCF files from the command line and manages
// the knowledge-base catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `Usage: pharmaguard <command> [flags]

Commands:
  analyze       analyze a VCF file: pharmaguard analyze --drug CODEINE patient.vcf
  drugs         list supported drugs
  genes         list supported genes
  seed-catalog  write the knowledge base into the catalog database
  export-kb     print the active knowledge base as YAML
  setup-mcp     register pharmaguard-mcp-server with the desktop MCP client

Run "pharmaguard <command> --help" for command flags.
`

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	cli := &cli{stdin: stdin, stdout: stdout, stderr: stderr}

	var err error
	switch args[0] {
	case "analyze":
		err = cli.analyze(ctx, args[1:])
	case "drugs":
		err = cli.drugs(ctx, args[1:])
	case "genes":
		err = cli.genes(ctx, args[1:])
	case "seed-catalog":
		err = cli.seedCatalog(ctx, args[1:])
	case "export-kb":
		err = cli.exportKB(ctx, args[1:])
	case "setup-mcp":
		err = cli.setupMCP(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}

	if err == nil {
		return exitOK
	}
	var usageErr usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitError
}

type usageError string

func (e usageError) Error() string { return string(e) }
