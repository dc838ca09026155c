package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/commands"
	"github.com/thomas-vilte/gemscout/internal/commands/completion_helper"
	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/regex"
	"github.com/thomas-vilte/gemscout/internal/ui"
)

// Evaluator scores a single repository given as owner/repo.
type Evaluator interface {
	EvaluateRepo(ctx context.Context, fullName string) (models.AnalysisResult, error)
}

type EvaluatorProvider func(ctx context.Context, opts commands.Options) (Evaluator, error)

type AnalyzeCommand struct {
	provider EvaluatorProvider
	out      io.Writer
}

func NewAnalyzeCommand(provider EvaluatorProvider) *AnalyzeCommand {
	return &AnalyzeCommand{provider: provider, out: os.Stdout}
}

func (c *AnalyzeCommand) WithOutput(w io.Writer) *AnalyzeCommand {
	c.out = w
	return c
}

func (c *AnalyzeCommand) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     t.GetMessage("analyze.usage", 0, nil),
		ArgsUsage: "<owner/repo>",
		Flags: append([]cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the verdict as JSON"},
		}, commands.ScanFlags(t)...),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo := normalizeRepo(cmd.Args().First())
			if !regex.FullName.MatchString(repo) {
				return fmt.Errorf("%s", t.GetMessage("analyze.missing_repo", 0, nil))
			}

			opts, err := commands.ScanOptions(cmd)
			if err != nil {
				return err
			}
			evaluator, err := c.provider(ctx, opts)
			if err != nil {
				return err
			}

			spinner := ui.NewSmartSpinner(t.GetMessage("analyze.spinner", 0, map[string]interface{}{"Repo": repo}))
			spinner.Start()
			result, err := evaluator.EvaluateRepo(ctx, repo)
			if err != nil {
				spinner.Error(err.Error())
				return err
			}
			spinner.Success(t.GetMessage("analyze.done", 0, nil))

			if cmd.Bool("json") {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			ui.PrintVerdict(c.out, result, t)
			return nil
		},
	}
}

// normalizeRepo accepts owner/repo or a github.com URL.
func normalizeRepo(arg string) string {
	if m := regex.HTTPSRepo.FindStringSubmatch(arg); m != nil && m[1] == "github.com" {
		return m[2] + "/" + m[3]
	}
	return arg
}
