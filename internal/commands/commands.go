// Package commands holds what the gemscout subcommands share: the scan
// options, their flags and the registry that turns factories into commands.
package commands

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/gemscout/internal/config"
	"github.com/thomas-vilte/gemscout/internal/i18n"
)

const (
	SourcePrefilter = "prefilter"
	SourceSearch    = "search"
	SourceFile      = "file"
)

// Sources lists the accepted --source values.
func Sources() []string {
	return []string{SourcePrefilter, SourceSearch, SourceFile}
}

// Options are the scan settings collected from flags. Empty fields fall back
// to the configuration.
type Options struct {
	Source       string
	PrefilterCmd []string
	Input        string
	PolicyPath   string
	NoAI         bool
	Provider     config.AI
}

// ScanFlags are the flags shared by every command that scores candidates.
func ScanFlags(t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "policy",
			Usage: t.GetMessage("run.flag_policy", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "no-ai",
			Usage: t.GetMessage("run.flag_no_ai", 0, nil),
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: t.GetMessage("run.flag_provider", 0, nil),
		},
	}
}

// ScanOptions reads the shared flags, rejecting unknown providers.
func ScanOptions(cmd *cli.Command) (Options, error) {
	opts := Options{
		PolicyPath: cmd.String("policy"),
		NoAI:       cmd.Bool("no-ai"),
	}
	if p := strings.TrimSpace(cmd.String("provider")); p != "" {
		if !config.IsSupportedAI(p) {
			return Options{}, fmt.Errorf("unsupported AI provider: %s", p)
		}
		opts.Provider = config.AI(p)
	}
	return opts, nil
}

type CommandFactory interface {
	CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command
}

// Registry keeps factories in registration order.
type Registry struct {
	names     []string
	factories map[string]CommandFactory
	config    *config.Config
	t         *i18n.Translations
}

func NewRegistry(cfg *config.Config, t *i18n.Translations) *Registry {
	return &Registry{
		factories: make(map[string]CommandFactory),
		config:    cfg,
		t:         t,
	}
}

func (r *Registry) Register(name string, factory CommandFactory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("command factory '%s' already registered", name)
	}
	r.names = append(r.names, name)
	r.factories[name] = factory
	return nil
}

func (r *Registry) CreateCommands() []*cli.Command {
	commands := make([]*cli.Command, 0, len(r.names))
	for _, name := range r.names {
		commands = append(commands, r.factories[name].CreateCommand(r.t, r.config))
	}
	return commands
}
