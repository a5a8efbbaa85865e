package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements it.
type execIface interface {
	isLoggedIn() bool
	Open(ctx context.Context, path string) error
	Home(ctx context.Context) error
	Login(ctx context.Context) error
	Register(ctx context.Context, kind string) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Reload(ctx context.Context) error
	Profile(ctx context.Context) error
	Resend(ctx context.Context) error
	Passwd(ctx context.Context) error
	TwoFactor(ctx context.Context, action string) error
}

const (
	helpAnonymous = "Available commands: open <path>, home, login, register [user|publisher|promoter], exit"
	helpSignedIn  = "Available commands: open <path>, home, whoami, reload, profile, resend, passwd, 2fa setup|disable, logout, exit"
)

// runREPL reads one command per line and dispatches it to a. The prompt shows
// statusFn. Handlers report their own errors, so returned errors are ignored.
// The loop ends on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("cb %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpAnonymous)
			}

		case "open", "cd":
			if arg == "" {
				printlnFn("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, arg)

		case "home":
			_ = a.Home(ctx)

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx, arg)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "reload":
			_ = a.Reload(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "passwd":
			_ = a.Passwd(ctx)

		case "2fa":
			_ = a.TwoFactor(ctx, arg)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err == io.EOF {
			return
		}
	}
}
