// Package cli implements the interactive terminal front end of the
// vault: a small REPL that dispatches commands to the engine, plus the
// prompt helpers the command handlers are built from.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/mkaminskis/passvault/internal/engine"
	"github.com/mkaminskis/passvault/internal/logging"
)

// App wires the interactive command handlers to the vault engine.
type App struct {
	engine *engine.Engine
	logger logging.Logger
	reader *bufio.Reader
}

// NewApp builds the CLI around an already-constructed engine.
func NewApp(e *engine.Engine, logger logging.Logger) *App {
	return &App{
		engine: e,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run starts the REPL on stdin and blocks until the user exits,
// input reaches EOF, or ctx is canceled. The session key is wiped
// on the way out.
func (a *App) Run(ctx context.Context) {
	defer a.engine.Logout()
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.engine.IsLoggedIn()
}

// status renders the prompt suffix, e.g. "(bob)" when logged in.
func (a *App) status() string {
	if name := a.engine.CurrentUsername(); name != "" {
		return "(" + name + ")"
	}
	return ""
}
