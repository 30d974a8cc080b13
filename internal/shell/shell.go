package shell

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Options configures Run.
type Options struct {
	In     io.Reader
	Out    io.Writer
	Banner string
	Log    *zap.Logger
}

// Run starts the shell on ns and blocks until the user quits or ctx is done.
func Run(ctx context.Context, ns Namespace, opts Options) error {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	banner := opts.Banner
	if banner == "" {
		banner = fmt.Sprintf("portunus shell. names: %v. type help for commands.", ns.Names())
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.In != nil {
		programOpts = append(programOpts, tea.WithInput(opts.In))
	}
	if opts.Out != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Out))
	}

	log.Info("shell started", zap.Strings("names", ns.Names()))
	p := tea.NewProgram(NewModel(ctx, NewInterpreter(ns, log), banner), programOpts...)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("shell: %w", err)
	}
	log.Info("shell exited")
	return nil
}
