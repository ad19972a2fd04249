package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	. "github.com/stevegt/goadapt"
	"github.com/stevegt/envi"

	"github.com/meriemdhouibi13/hashtablesmd/core"
	"github.com/meriemdhouibi13/hashtablesmd/server"
)

type cmdShell struct {
	Script string `arg:"" optional:"" help:"File of commands to run instead of reading stdin."`
	Size   int    `short:"n" default:"${size}" help:"Number of buckets in the table."`
	Quiet  bool   `short:"q" help:"Do not print a prompt when reading stdin."`
}

type cmdHash struct {
	Keys []string `arg:"" help:"Keys to hash."`
	Size int      `short:"n" default:"${size}" help:"Number of buckets in the table."`
}

type cmdServe struct {
	Addr string `short:"a" default:"${addr}" help:"Address to listen on."`
	Size int    `short:"n" default:"${size}" help:"Number of buckets in the table."`
}

type cmdVersion struct {
	Require string `short:"r" help:"Exit with rc 1 unless the code is at least this version."`
}

type cliArgs struct {
	Shell   cmdShell   `cmd:"" help:"Run table commands from stdin or a script file."`
	Hash    cmdHash    `cmd:"" help:"Print the bucket index of each key."`
	Serve   cmdServe   `cmd:"" help:"Serve the table over HTTP and websocket."`
	Verbose bool       `short:"v" help:"Show debug information on stderr."`
	Version cmdVersion `cmd:"" help:"Show version of hashtable."`
}

// Config contains the configuration for the hashtable CLI.
type Config struct {
	// Name is the name of the program
	Name string
	// Description is a short description of the program
	Description string
	// Version is the version of the program
	Version string
	// Exit is the function to call to exit the program
	Exit   func(int)
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewConfig returns a new Config struct with default values populated
func NewConfig() *Config {
	return &Config{
		Name:        "hashtable",
		Description: "A fixed-size chained hash table with an operation log.",
		Version:     core.CodeVersion(),
		Exit:        func(i int) { os.Exit(i) },
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Cli parses the given arguments and then executes the appropriate
// subcommand.
func Cli(args []string, config *Config) (rc int, err error) {
	defer Return(&err)

	var cli cliArgs
	options := []kong.Option{
		kong.Name(config.Name),
		kong.Description(config.Description),
		kong.Exit(config.Exit),
		kong.Writers(config.Stdout, config.Stderr),
		kong.Vars{
			"version": config.Version,
			"size":    envi.String("HASHTABLE_SIZE", strconv.Itoa(core.DefaultSize)),
			"addr":    envi.String("HASHTABLE_ADDR", ":8080"),
		},
	}

	var parser *kong.Kong
	parser, err = kong.New(&cli, options...)
	Ck(err)
	ctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)
	if err != nil {
		// only reached when config.Exit returns
		rc = 1
		err = nil
		return
	}

	if cli.Verbose {
		os.Setenv("DEBUG", "1")
	}
	Debug("ctx: %+v", ctx)

	switch ctx.Command() {
	case "shell", "shell <script>":
		var table *core.Table
		table, err = core.NewSized(cli.Shell.Size)
		if err != nil {
			Fpf(config.Stderr, "Error: %v\n", err)
			rc = 1
			err = nil
			return
		}
		in := config.Stdin
		prompt := !cli.Shell.Quiet
		if cli.Shell.Script != "" {
			var fh *os.File
			fh, err = os.Open(cli.Shell.Script)
			Ck(err)
			defer fh.Close()
			in = fh
			prompt = false
		}
		sh := NewShell(table, config.Stdout, config.Stderr)
		sh.Prompt = prompt
		err = sh.Run(in)
		Ck(err)
	case "hash <keys>":
		if cli.Hash.Size <= 0 {
			Fpf(config.Stderr, "Error: size must be positive\n")
			rc = 1
			return
		}
		for _, key := range cli.Hash.Keys {
			Fpf(config.Stdout, "%d\t%s\n", core.Hash(key, cli.Hash.Size), key)
		}
	case "serve":
		var table *core.Table
		table, err = core.NewSized(cli.Serve.Size)
		if err != nil {
			Fpf(config.Stderr, "Error: %v\n", err)
			rc = 1
			err = nil
			return
		}
		sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(table)
		defer srv.Close()
		err = srv.Serve(sigctx, cli.Serve.Addr)
		Ck(err)
	case "version":
		Fpf(config.Stdout, "hashtable version %s\n", core.CodeVersion())
		if cli.Version.Require != "" {
			var ok bool
			ok, err = core.Satisfies(cli.Version.Require)
			Ck(err)
			if !ok {
				Fpf(config.Stderr, "Error: version %s required\n", cli.Version.Require)
				rc = 1
				return
			}
		}
	default:
		Fpf(config.Stderr, "Error: unrecognized command: %s\n", ctx.Command())
		rc = 1
		return
	}

	return
}
