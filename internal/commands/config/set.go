package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/ui"
)

func (c *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config.set_usage", 0, nil),
		ArgsUsage: "<key> <value>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 2 {
				return fmt.Errorf("missing arguments: expected <key> <value>")
			}
			key := strings.ToLower(cmd.Args().Get(0))
			value := strings.Join(cmd.Args().Slice()[1:], " ")

			if err := apply(cfg, key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("config.set_success", 0, map[string]interface{}{
				"Key":   key,
				"Value": value,
			}))
			return nil
		},
	}
}

func apply(cfg *config.Config, key, value string) error {
	switch key {
	case "lang", "language":
		if value != config.LangEN && value != config.LangES {
			return fmt.Errorf("invalid language: %s", value)
		}
		cfg.Language = value
	case "provider":
		if !config.IsSupportedAI(value) {
			return fmt.Errorf("unsupported AI provider: %s", value)
		}
		cfg.AIProvider = config.AI(value)
	case "model":
		if cfg.AIModels == nil {
			cfg.AIModels = make(map[config.AI]config.Model)
		}
		cfg.AIModels[cfg.AIProvider] = config.Model(value)
	case "policy":
		cfg.PolicyPath = value
	case "prefilter":
		cfg.PrefilterCommand = strings.Fields(value)
	case "lookup_timeout", "ai_timeout", "cache_ttl", "lookup_parallelism":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid %s (must be a positive integer): %s", key, value)
		}
		switch key {
		case "lookup_timeout":
			cfg.LookupTimeoutSeconds = n
		case "ai_timeout":
			cfg.AITimeoutSeconds = n
		case "lookup_parallelism":
			cfg.LookupParallelism = n
		default:
			cfg.CacheTTLHours = n
		}
	case "rps", "requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid requests_per_second: %s", value)
		}
		cfg.RequestsPerSecond = f
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
