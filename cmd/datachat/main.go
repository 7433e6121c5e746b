package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/datachat/internal/backend"
	"github.com/csheth/datachat/internal/config"
	"github.com/csheth/datachat/internal/session"
	"github.com/csheth/datachat/internal/tui"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Println("invalid configuration:", err)
		os.Exit(2)
	}

	if cfg.LogPath != "" {
		logFile, err := tea.LogToFile(cfg.LogPath, "datachat")
		if err != nil {
			fmt.Println("failed to open log file:", err)
			os.Exit(1)
		}
		defer logFile.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	var initial *backend.File
	if cfg.FilePath != "" {
		file, err := backend.LoadFile(cfg.FilePath)
		if err != nil {
			fmt.Println("failed to read file:", err)
			os.Exit(1)
		}
		initial = &file
	}

	client := backend.New(backend.Config{BaseURL: cfg.BaseURL})
	controller := session.New(session.Config{
		Client:  client,
		Timeout: cfg.Timeout,
	})
	log.Printf("[main] backend=%s timeout=%s env-file=%q", client.Name(), cfg.Timeout, cfg.EnvFile)

	opts := []tea.ProgramOption{}
	if !cfg.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller:  controller,
			BackendName: client.Name(),
			InitialFile: initial,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		fmt.Println("program error:", err)
		os.Exit(1)
	}
}
