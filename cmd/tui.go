package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/djay/internal/player"
	"github.com/desertthunder/djay/internal/repositories"
	"github.com/desertthunder/djay/internal/shared"
	"github.com/desertthunder/djay/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	catalog, err := r.services()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	el, err := player.NewElement(r.config.Player, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}
	bridge := player.NewBridge(el, r.logger)
	defer func() {
		if err := bridge.Close(); err != nil {
			r.logger.Warn("failed to close player", "err", err)
		}
	}()

	db, err := shared.NewSessionDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	model := ui.NewModel(ctx, ui.Options{
		Catalog: catalog,
		Bridge:  bridge,
		History: repositories.NewHistoryRepository(db),
		Logger:  r.logger,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
