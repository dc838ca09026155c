package cache

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/cache"
	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/logger"
	"github.com/thomas-vilte/gemscout/internal/ui"
)

type CacheCommand struct{}

func NewCacheCommand() *CacheCommand {
	return &CacheCommand{}
}

func (c *CacheCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: t.GetMessage("cache.usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "clean",
				Usage: t.GetMessage("cache.clean_usage", 0, nil),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "expired",
						Usage: t.GetMessage("cache.flag_expired", 0, nil),
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					reviews, err := cache.Open(cfg.CacheDir(), cfg.CacheTTL())
					if err != nil {
						return fmt.Errorf("error opening AI review cache: %w", err)
					}

					if cmd.Bool("expired") {
						var removed int
						removed, err = reviews.Prune()
						logger.Debug(ctx, "expired AI reviews removed", "count", removed)
					} else {
						err = reviews.Purge()
					}
					if err != nil {
						return fmt.Errorf("error cleaning AI review cache: %w", err)
					}

					ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("cache.cleaned", 0, nil))
					return nil
				},
			},
		},
	}
}
