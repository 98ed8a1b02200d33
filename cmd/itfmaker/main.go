package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/olgyan/IrbisTextFileMaker/internal/logging"
	"github.com/olgyan/IrbisTextFileMaker/pkg/citation"
	"github.com/olgyan/IrbisTextFileMaker/pkg/config"
	"github.com/olgyan/IrbisTextFileMaker/pkg/extract"
	"github.com/olgyan/IrbisTextFileMaker/pkg/journal"
)

var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "itfmaker",
		Short: "ISBD citation to IRBIS import file converter",
		Long: `itfmaker parses bibliographic citations written in ISBD punctuation
(GOST 7.1 / 7.0.100 style) and builds IRBIS text import files.

Parsed entries are kept in a journal until they are saved:
  itfmaker parse "Иванов И. И. Заголовок. - М. : Наука, 2020. - 200 с."
  itfmaker batch references.txt
  itfmaker save`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default $"+config.EnvConfig+" or the application directory)")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(configCmd())
	return rootCmd
}

// app is the per-invocation state shared by the subcommands.
type app struct {
	cfgPath string
	cfg     *config.Config
	codes   *extract.Codes
	logger  *slog.Logger
	out     io.Writer
}

func loadApp(cmd *cobra.Command) (*app, error) {
	flag, _ := cmd.Flags().GetString("config")
	path := config.Path(flag)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level, format := cfg.LogSettings()
	logging.Init(cmd.ErrOrStderr(), level, format)

	codes := extract.DefaultCodes()
	if cfg.CodesFile != "" {
		codes, err = extract.LoadCodes(cfg.CodesFile)
		if err != nil {
			return nil, err
		}
	}

	return &app{
		cfgPath: path,
		cfg:     cfg,
		codes:   codes,
		logger:  logging.Default(),
		out:     cmd.OutOrStdout(),
	}, nil
}

func (a *app) parser(opts ...citation.Option) *citation.Parser {
	base := []citation.Option{
		citation.WithCodes(a.codes),
		citation.WithAdmin(citation.Admin{Origin: a.cfg.Origin, Operator: a.cfg.Operator}),
		citation.WithLogger(a.logger),
	}
	return citation.NewParser(append(base, opts...)...)
}

func (a *app) journal() (*journal.Journal, error) {
	return journal.Open(a.cfg.Journal)
}

func (a *app) status(s citation.Status) {
	fmt.Fprintln(a.out, s)
}
