package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/google/shlex"
	. "github.com/stevegt/goadapt"

	"github.com/meriemdhouibi13/hashtablesmd/core"
)

// shellLine is the grammar of a single shell command.  Keys and
// values are optional so that missing ones reach the table's own
// validation and show up in the log.
type shellLine struct {
	Insert struct {
		Key   string `arg:"" optional:"" help:"Key to insert or update."`
		Value string `arg:"" optional:"" help:"Value to store."`
	} `cmd:"" help:"Insert a key, or update its value if present."`
	Search struct {
		Key string `arg:"" optional:"" help:"Key to look up."`
	} `cmd:"" help:"Look up a key."`
	Delete struct {
		Key string `arg:"" optional:"" help:"Key to remove."`
	} `cmd:"" help:"Remove a key."`
	Hash struct {
		Key string `arg:"" help:"Key to hash."`
	} `cmd:"" help:"Print the bucket index of a key without touching the table."`
	Log   struct{} `cmd:"" help:"Print the operation log."`
	Table struct{} `cmd:"" help:"Print every entry with its bucket index."`
	Quit  struct{} `cmd:"" help:"Stop reading commands."`
	Exit  struct{} `cmd:"" help:"Stop reading commands."`
}

// maxLine is the longest command line Run accepts.
const maxLine = 16 * 1024 * 1024

// Shell reads table commands line by line and prints the log line
// each operation appends.
type Shell struct {
	// Prompt turns on the "> " prompt before each line.
	Prompt bool
	table  *core.Table
	stdout io.Writer
	stderr io.Writer
}

// NewShell returns a shell operating on table.
func NewShell(table *core.Table, stdout, stderr io.Writer) *Shell {
	return &Shell{table: table, stdout: stdout, stderr: stderr}
}

// Run executes commands from r until EOF or quit.  Bad commands are
// reported on stderr and do not stop the shell.
func (s *Shell) Run(r io.Reader) (err error) {
	defer Return(&err)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	for {
		if s.Prompt {
			Fpf(s.stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}
		quit, err := s.Exec(scanner.Text())
		if err != nil {
			Fpf(s.stderr, "error: %v\n", err)
			continue
		}
		if quit {
			return nil
		}
	}
	err = scanner.Err()
	Ck(err)
	return
}

// Exec runs a single command line.  It returns quit=true for quit and
// exit.  Blank lines and comments are ignored.
func (s *Shell) Exec(line string) (quit bool, err error) {
	words, err := shlex.Split(line)
	if err != nil {
		return
	}
	if len(words) == 0 {
		return
	}

	// keys and values are free-form, so nothing after the command
	// word is parsed as a flag
	switch words[0] {
	case "insert", "search", "delete", "hash":
		words = append([]string{words[0], "--"}, words[1:]...)
	}

	var cmd shellLine
	var helped bool
	parser, err := kong.New(&cmd,
		kong.Name(""),
		kong.Writers(s.stdout, s.stderr),
		kong.Exit(func(int) { helped = true }),
	)
	if err != nil {
		return
	}
	ctx, err := parser.Parse(words)
	if helped {
		return false, nil
	}
	if err != nil {
		return
	}
	Debug("shell: %q -> %s", line, ctx.Command())

	switch strings.Fields(ctx.Command())[0] {
	case "insert":
		s.print(s.table.Insert(cmd.Insert.Key, cmd.Insert.Value))
	case "search":
		s.print(s.table.Search(cmd.Search.Key))
	case "delete":
		s.print(s.table.Delete(cmd.Delete.Key))
	case "hash":
		Fpf(s.stdout, "%d\n", s.table.Hash(cmd.Hash.Key))
	case "log":
		for _, l := range s.table.Log() {
			Fpf(s.stdout, "%s\n", l)
		}
	case "table":
		for _, slot := range s.table.Entries() {
			Fpf(s.stdout, "%d: %s = %s\n", slot.Index, slot.Key, slot.Value)
		}
	case "quit", "exit":
		quit = true
	}
	return
}

func (s *Shell) print(res core.Result) {
	Debug("shell: clear inputs: %v", res.Clear)
	Fpf(s.stdout, "%s\n", res.Line)
}
