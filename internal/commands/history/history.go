package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/regex"
	"github.com/thomas-vilte/gemscout/internal/store"
	"github.com/thomas-vilte/gemscout/internal/ui"
)

const defaultLimit = 20

// Store lists stored verdicts, newest first.
type Store interface {
	History(ctx context.Context, repo string, limit int) ([]store.Record, error)
}

type StoreProvider func(ctx context.Context) (Store, error)

type HistoryCommand struct {
	provider StoreProvider
	out      io.Writer
}

func NewHistoryCommand(provider StoreProvider) *HistoryCommand {
	return &HistoryCommand{provider: provider, out: os.Stdout}
}

func (c *HistoryCommand) WithOutput(w io.Writer) *HistoryCommand {
	c.out = w
	return c
}

func (c *HistoryCommand) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: t.GetMessage("history.usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   t.GetMessage("history.flag_repo", 0, nil),
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"l"},
				Value:   defaultLimit,
				Usage:   t.GetMessage("history.flag_limit", 0, nil),
			},
			&cli.BoolFlag{Name: "json", Usage: "Print the verdicts as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo := cmd.String("repo")
			if repo != "" && !regex.FullName.MatchString(repo) {
				return fmt.Errorf("%s", t.GetMessage("analyze.missing_repo", 0, nil))
			}

			s, err := c.provider(ctx)
			if err != nil {
				return err
			}
			records, err := s.History(ctx, repo, cmd.Int("limit"))
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				results := make([]interface{}, 0, len(records))
				for _, r := range records {
					results = append(results, r.Result)
				}
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			ui.PrintHistory(c.out, records, t)
			return nil
		},
	}
}
