package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/commands"
	"github.com/thomas-vilte/gemscout/internal/commands/completion_helper"
	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
	"github.com/thomas-vilte/gemscout/internal/models"
	"github.com/thomas-vilte/gemscout/internal/pipeline"
	"github.com/thomas-vilte/gemscout/internal/ui"
	"github.com/thomas-vilte/gemscout/internal/vcs/github"
)

// Runner scans one tier of candidates.
type Runner interface {
	Run(ctx context.Context, tier string, maxApproved int) models.BatchResult
}

type RunnerProvider func(ctx context.Context, opts commands.Options) (Runner, error)

type RunCommand struct {
	provider RunnerProvider
	out      io.Writer
}

func NewRunCommand(provider RunnerProvider) *RunCommand {
	return &RunCommand{provider: provider, out: os.Stdout}
}

// WithOutput redirects the summary, mostly for tests.
func (c *RunCommand) WithOutput(w io.Writer) *RunCommand {
	c.out = w
	return c
}

func (c *RunCommand) CreateCommand(t *i18n.Translations, _ *config.Config) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "tier",
			Aliases: []string{"t"},
			Value:   "small",
			Usage:   t.GetMessage("run.flag_tier", 0, nil),
		},
		&cli.IntFlag{
			Name:    "max-approved",
			Aliases: []string{"n"},
			Value:   10,
			Usage:   t.GetMessage("run.flag_max_approved", 0, nil),
		},
		&cli.StringFlag{
			Name:  "source",
			Value: commands.SourcePrefilter,
			Usage: t.GetMessage("run.flag_source", 0, nil),
		},
		&cli.StringFlag{
			Name:  "prefilter-cmd",
			Usage: t.GetMessage("run.flag_prefilter_cmd", 0, nil),
		},
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   t.GetMessage("run.flag_input", 0, nil),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   t.GetMessage("run.flag_output", 0, nil),
		},
	}

	return &cli.Command{
		Name:          "run",
		Usage:         t.GetMessage("run.usage", 0, nil),
		Flags:         append(flags, commands.ScanFlags(t)...),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tier := cmd.String("tier")

			opts, err := commands.ScanOptions(cmd)
			if err != nil {
				return err
			}
			opts.Source = cmd.String("source")
			if !slices.Contains(commands.Sources(), opts.Source) {
				return fmt.Errorf("%s", t.GetMessage("run.invalid_source", 0, map[string]interface{}{"Source": opts.Source}))
			}
			// Only the search source interprets the tier; the others pass it on.
			if opts.Source == commands.SourceSearch && !slices.Contains(github.Tiers(), tier) {
				return fmt.Errorf("%s", t.GetMessage("run.invalid_tier", 0, map[string]interface{}{"Tier": tier}))
			}
			opts.Input = cmd.String("input")
			if opts.Source == commands.SourceFile && opts.Input == "" {
				return fmt.Errorf("%s", t.GetMessage("run.input_required", 0, nil))
			}
			opts.PrefilterCmd = strings.Fields(cmd.String("prefilter-cmd"))

			runner, err := c.provider(ctx, opts)
			if err != nil {
				return err
			}

			spinner := ui.NewSmartSpinner(t.GetMessage("run.spinner", 0, map[string]interface{}{"Tier": tier}))
			spinner.Start()
			batch := runner.Run(ctx, tier, cmd.Int("max-approved"))
			spinner.Success(t.GetMessage("run.done", 0, nil))

			ui.PrintBatchSummary(c.out, batch, t)

			if output := cmd.String("output"); output != "" {
				if err := pipeline.WriteExport(output, batch); err != nil {
					return err
				}
				ui.PrintSuccess(c.out, t.GetMessage("run.exported", 0, map[string]interface{}{"Path": output}))
			}
			return nil
		},
	}
}
