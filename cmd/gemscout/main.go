package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/commands"
	"github.com/thomas-vilte/gemscout/internal/commands/analyze"
	cachecmd "github.com/thomas-vilte/gemscout/internal/commands/cache"
	configcmd "github.com/thomas-vilte/gemscout/internal/commands/config"
	"github.com/thomas-vilte/gemscout/internal/commands/history"
	"github.com/thomas-vilte/gemscout/internal/commands/run"
	cfg "github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/di"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/ui"
	"github.com/thomas-vilte/gemscout/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, translations, container, err := initializeApp()
	if err != nil {
		log.Fatalf("error starting gemscout: %v", err)
	}

	err = app.Run(ctx, os.Args)
	if cerr := container.Close(); cerr != nil {
		logger.Warn(ctx, "error closing verdict store", "error", cerr)
	}
	if err != nil {
		ui.HandleAppError(os.Stderr, err, translations)
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, *i18n.Translations, *di.Container, error) {
	cfgApp, err := cfg.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfg.GetLocaleConfig(cfgApp.Language))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading translations: %w", err)
	}

	container := di.NewContainer(cfgApp)

	registry := commands.NewRegistry(cfgApp, translations)
	factories := []struct {
		name    string
		factory commands.CommandFactory
	}{
		{"run", run.NewRunCommand(container.Runner)},
		{"analyze", analyze.NewAnalyzeCommand(container.Evaluator)},
		{"history", history.NewHistoryCommand(container.History)},
		{"config", configcmd.NewConfigCommandFactory()},
		{"cache", cachecmd.NewCacheCommand()},
	}
	for _, f := range factories {
		if err := registry.Register(f.name, f.factory); err != nil {
			return nil, nil, nil, err
		}
	}

	app := &cli.Command{
		Name:        "gemscout",
		Usage:       translations.GetMessage("app_usage", 0, nil),
		Description: translations.GetMessage("app_description", 0, nil),
		Version:     version.FullVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: translations.GetMessage("flag_debug", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.GetMessage("flag_verbose", 0, nil),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))
			return ctx, nil
		},
		Commands:              registry.CreateCommands(),
		EnableShellCompletion: true,
	}
	return app, translations, container, nil
}
