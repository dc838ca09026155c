package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/ui"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config.show_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			ui.PrintSectionBanner(w, t.GetMessage("config.title", 0, nil))

			ui.PrintKeyValue(w, "language", cfg.Language)
			ui.PrintKeyValue(w, "provider", string(cfg.AIProvider))
			ui.PrintKeyValue(w, "model", string(cfg.Model(cfg.AIProvider)))
			ui.PrintKeyValue(w, "policy", orDefault(cfg.PolicyPath, t))
			ui.PrintKeyValue(w, "prefilter", orDefault(strings.Join(cfg.PrefilterCommand, " "), t))
			ui.PrintKeyValue(w, "lookup_timeout", cfg.LookupTimeout().String())
			ui.PrintKeyValue(w, "ai_timeout", cfg.AITimeout().String())
			ui.PrintKeyValue(w, "requests_per_second", fmt.Sprint(cfg.RequestsPerSecond))
			ui.PrintKeyValue(w, "lookup_parallelism", fmt.Sprint(cfg.LookupParallelism))
			ui.PrintKeyValue(w, "cache_ttl", cfg.CacheTTL().String())
			ui.PrintKeyValue(w, "data_dir", cfg.DataDir)

			_, _ = fmt.Fprintln(w)
			ui.PrintKeyValue(w, "GITHUB_TOKEN", credentialStatus(cfg.GitHubToken != "", t))
			ui.PrintKeyValue(w, "GOOGLE_API_KEY", keyCount(len(cfg.GeminiKeys), t))
			ui.PrintKeyValue(w, "ANTHROPIC_API_KEY", keyCount(len(cfg.AnthropicKeys), t))
			return nil
		},
	}
}

func orDefault(v string, t *i18n.Translations) string {
	if v == "" {
		return ui.Dim.Sprint(t.GetMessage("config.default", 0, nil))
	}
	return v
}

func credentialStatus(set bool, t *i18n.Translations) string {
	if set {
		return ui.Success.Sprint(t.GetMessage("config.set", 0, nil))
	}
	return ui.Warning.Sprint(t.GetMessage("config.not_set", 0, nil))
}

func keyCount(n int, t *i18n.Translations) string {
	if n == 0 {
		return credentialStatus(false, t)
	}
	return ui.Success.Sprint(t.GetMessage("config.keys", n, map[string]interface{}{"Count": n}))
}
