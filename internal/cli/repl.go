package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Add(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	ShowUsername(ctx context.Context) error
	ShowPassword(ctx context.Context) error
	Search(ctx context.Context) error
	Update(ctx context.Context) error
	Delete(ctx context.Context) error
	Rotate(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: add, (l)ist, show, user, pass, search, update, delete, rotate, delaccount, logout, exit"
)

// runREPL starts a read-eval-print loop over the vault commands.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF, context cancellation, or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - register       — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help           — show available commands
//	  - add            — store a new site credential
//	  - list | l       — list stored credentials
//	  - show           — show a credential's details (password stays hidden)
//	  - user           — reveal the site username for a credential
//	  - pass           — reveal the site password for a credential
//	  - search         — find credentials by website substring
//	  - update         — change a credential's fields
//	  - delete         — remove a credential (with confirmation)
//	  - rotate         — change the master password, re-encrypting everything
//	  - delaccount     — delete the account (with confirmation, only when empty)
//	  - logout         — log out
//	  - exit | quit    — leave the program
//
// Errors returned by command handlers are printed here, so handlers can
// simply bubble them up.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	report := func(err error) {
		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("vault %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "add":
			report(a.Add(ctx))

		case "l", "list":
			report(a.List(ctx))

		case "show":
			report(a.Show(ctx))

		case "user":
			report(a.ShowUsername(ctx))

		case "pass":
			report(a.ShowPassword(ctx))

		case "search":
			report(a.Search(ctx))

		case "update":
			report(a.Update(ctx))

		case "delete":
			report(a.Delete(ctx))

		case "rotate":
			report(a.Rotate(ctx))

		case "delaccount":
			report(a.DeleteAccount(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
