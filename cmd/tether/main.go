package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/tether/internal/config"
	"github.com/jask/tether/internal/database"
	"github.com/jask/tether/internal/database/repository"
	"github.com/jask/tether/internal/livefile"
	"github.com/jask/tether/internal/textdiff"
	"github.com/jask/tether/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		log.Fatalf("mkdir db dir: %v", err)
	}

	if err := database.RunMigrations(cfg.Database.Path, "internal/database/migrations"); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	recents := repository.NewRecentFileRepo(db)

	// engine
	events := make(chan tui.EngineEvent, 8)
	signal := tui.SignalSink(events)
	gateway := livefile.NewGateway()
	summarizer := textdiff.NewSummarizer(time.Duration(cfg.Diff.TimeoutMs) * time.Millisecond)
	controller := livefile.NewController(gateway, summarizer, tui.TextSink(events))
	bus := livefile.NewFocusBus()
	scheduler := livefile.NewRefreshScheduler(controller, bus, signal)
	defer scheduler.Close()

	app := tui.New(ctx, cfg, controller, bus, recents, events)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	app.Teardown()
}
