// Command negotiate is the terminal negotiation console: conversation list,
// live transcript, compose box and the AI metrics panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"auto-uc2-dashboard/app"
	"auto-uc2-dashboard/config"
	"auto-uc2-dashboard/negotiation"
	"auto-uc2-dashboard/services"
	"auto-uc2-dashboard/ui"
)

func main() {
	cfgPath := flag.String("config", "", "optional YAML config file")
	logPath := flag.String("log", "negotiate.log", "log file")
	flag.Parse()

	if err := run(*cfgPath, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "negotiate:", err)
		os.Exit(1)
	}
}

func run(cfgPath, logPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Log.Level))
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, logger, "console")
	if err != nil {
		return err
	}
	defer a.Close()

	toasts := ui.NewToasts()
	conversations := services.NewConversations(a.API)
	build := func(me string) *negotiation.Session {
		return negotiation.NewSession(conversations, a.Socket, toasts, logger, a.NegotiationConfig(me))
	}

	m := newModel(ctx, a.Sessions, services.NewAuth(a.Deps), build, toasts, cfg.Negotiation.AIBotEmail)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.out.set(p.Send)

	a.Socket.OnStateChange(func(bool) { p.Send(refreshMsg{}) })
	a.Socket.Start(ctx)

	_, err = p.Run()
	if m.active() != nil {
		m.active().Close()
	}
	return err
}
