package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const helpText = `Available commands:
  add                     record a new measurement
  list | l                list measurements
  show <id>               show a measurement
  delete <id>             delete a measurement
  photo <id> <path>       attach a photo
  unphoto <id>            remove the photo
  sync                    run a sync pass now
  status                  show sync status
  history [n]             show the last n sync passes
  cloud [on|off]          show or toggle cloud sync
  exit | quit             leave the program
Ids may be shortened to any unique prefix of at least 4 characters.`

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Photo(ctx context.Context, args []string) error
	Unphoto(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
	History(ctx context.Context, args []string) error
	Cloud(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the bodykeeper CLI.
//
// It reads a line from r, parses the first token as the command and the rest
// as its arguments, and dispatches to methods on 'a'. Commands that need more
// input read it from the same reader. The loop exits on EOF, when ctx is
// done, or when the user types "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(w, "bk %s> ", statusFn())

		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			fmt.Fprintln(w, helpText)

		case "add":
			_ = a.Add(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show":
			_ = a.Show(ctx, args)

		case "delete", "rm":
			_ = a.Delete(ctx, args)

		case "photo":
			_ = a.Photo(ctx, args)

		case "unphoto":
			_ = a.Unphoto(ctx, args)

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "history":
			_ = a.History(ctx, args)

		case "cloud":
			_ = a.Cloud(ctx, args)

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}

// getStatus renders the prompt status, e.g. "(online, synced)".
func (a *App) getStatus() string {
	parts := make([]string, 0, 2)
	if m := a.getMode(); m != "" {
		parts = append(parts, string(m))
	}
	if a.syncer != nil {
		if st, _ := a.syncer.Status(); st != "" {
			parts = append(parts, string(st))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Root runs the interactive session until the user leaves or ctx is done.
func (a *App) Root(ctx context.Context) {
	if interactive() {
		fmt.Fprintln(a.out, "Welcome to bodykeeper (type 'help' for commands)")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer a.Wait()
	defer cancel()

	a.Start(ctx)
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}
