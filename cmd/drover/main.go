// Command drover is an interactive terminal chat client. It streams the
// worker's reply incrementally, shows tool calls as they resolve, and keeps
// a running total of what the session has cost. Esc aborts the in-flight
// turn; ctrl+c quits.
//
// Configuration is read from ~/.config/drover/config.toml and can be
// overridden with flags. The API key is taken from -api-key, the config
// file, or ANTHROPIC_API_KEY, in that order. Set DROVER_LOG to a file path
// to capture structured logs without disturbing the screen.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/droverhq/drover"
	"github.com/droverhq/drover/anthropic"
	sessionjson "github.com/droverhq/drover/json"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "drover: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		model      = flag.String("model", "", "model ID (default: config file, then the transport default)")
		configPath = flag.String("config", defaultConfigPath(), "path to the TOML config file")
		apiKey     = flag.String("api-key", "", "API key (overrides the config file and ANTHROPIC_API_KEY)")
		system     = flag.String("system-prompt", "", "system prompt for the session")
		sessionP   = flag.String("session", "", "session file to resume and persist (empty: new unsaved session)")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	key := *apiKey
	if key == "" {
		key = cfg.APIKey
	}
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return errors.New("no API key: set -api-key, api_key in the config file, or ANTHROPIC_API_KEY")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if path := os.Getenv("DROVER_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = slog.New(slog.NewJSONHandler(f, nil))
	}

	modelID := *model
	if modelID == "" {
		modelID = cfg.Model
	}

	opts := []drover.EngineOption{
		drover.WithPrices(cfg.priceTable()),
		drover.WithLogger(logger),
	}
	if modelID != "" {
		opts = append(opts, drover.WithModel(modelID))
	}
	if cfg.MaxTokens > 0 {
		opts = append(opts, drover.WithMaxTokens(cfg.MaxTokens))
	}
	engine := drover.NewEngine(anthropic.New(key), opts...)

	now := time.Now()
	session := &drover.ChatSession{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	if *sessionP != "" {
		loaded, err := sessionjson.Load(*sessionP)
		switch {
		case err == nil:
			session = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("resume session: %w", err)
		}
	}
	if *system != "" && len(session.Messages) == 0 {
		session.Messages = append(session.Messages, drover.ChatMessage{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Role:      drover.RoleSystem,
			Text:      *system,
			Timestamp: now,
			Done:      true,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := newChatModel(engine, session)
	if path := *sessionP; path != "" {
		m.save = func(s *drover.ChatSession) error {
			return sessionjson.Save(path, s)
		}
	}

	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
