package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/cleantech-assistant/backend/internal/config"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/logging"
	"github.com/zhouzirui/cleantech-assistant/backend/internal/widget"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		server   string
		logFile  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "widget",
		Short:        "Terminal chat widget for the Cleantech Directory assistant",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}

			// The TUI owns the terminal, so logs go to a file or nowhere.
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				out = f
			}
			logging.Setup(config.LogConfig{Level: level, Format: "json"}, out)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, server)
		},
	}

	defaultServer := os.Getenv("WIDGET_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:3001"
	}

	cmd.Flags().StringVar(&server, "server", defaultServer, "base URL of the chat relay")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}

func run(ctx context.Context, server string) error {
	w := widget.New(widget.NewHTTPSender(server, nil))

	p := tea.NewProgram(newModel(ctx, w), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("widget: %w", err)
	}
	return nil
}
