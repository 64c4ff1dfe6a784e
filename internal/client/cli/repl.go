package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Test seams for shell output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface is the command surface the shell loop dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	Goto(ctx context.Context, name string) error
	EditProfile(ctx context.Context) error
	NewCollaboration(ctx context.Context) error
	ShowCollaboration(ctx context.Context, uuid string) error
	Upload(ctx context.Context, kind, path string) error
	Status(ctx context.Context) error
}

const (
	helpGuest = "Available commands: help, login [email], register, goto <section>, status, exit"
	helpUser  = "Available commands: help, goto <section>, dashboard, collabs, new-collab, show-collab <uuid>, " +
		"upload <qc|stats|gwas> <file>, profile, edit-profile, status, logout, exit"
)

// runREPL reads commands from reader until EOF, exit or ctx is done.
// Command errors are reported by the handlers themselves; the loop only
// logs them and keeps going.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, onErr func(cmd string, err error)) {
	for {
		if ctx.Err() != nil {
			return
		}
		printFn(fmt.Sprintf("portal [%s]> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			printlnFn()
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpUser)
			} else {
				printlnFn(helpGuest)
			}
		case "login":
			cmdErr = a.Login(ctx, args)
		case "register":
			cmdErr = a.Register(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "goto":
			if len(args) < 1 {
				printlnFn("Usage: goto <section>")
				continue
			}
			cmdErr = a.Goto(ctx, args[0])
		case "home", "dashboard":
			cmdErr = a.Goto(ctx, cmd)
		case "collabs":
			cmdErr = a.Goto(ctx, "collaborations")
		case "profile":
			cmdErr = a.Goto(ctx, "profile")
		case "edit-profile":
			cmdErr = a.EditProfile(ctx)
		case "new-collab":
			cmdErr = a.NewCollaboration(ctx)
		case "show-collab":
			if len(args) < 1 {
				printlnFn("Usage: show-collab <uuid>")
				continue
			}
			cmdErr = a.ShowCollaboration(ctx, args[0])
		case "upload":
			if len(args) < 2 {
				printlnFn("Usage: upload <qc|stats|gwas> <file>")
				continue
			}
			cmdErr = a.Upload(ctx, args[0], args[1])
		case "status":
			cmdErr = a.Status(ctx)
		case "exit", "quit":
			printlnFn("Bye")
			return
		default:
			printlnFn("Unknown command. Type 'help' for a list of commands.")
		}
		if cmdErr != nil && onErr != nil {
			onErr(cmd, cmdErr)
		}
	}
}

// Run starts the shell on the App's input and blocks until it ends.
func (a *App) Run(ctx context.Context) {
	runREPL(ctx, a, a.status, a.reader, func(cmd string, err error) {
		a.log.Debug("command failed", zap.String("cmd", cmd), zap.Error(err))
	})
}
