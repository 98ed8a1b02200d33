package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/olgyan/IrbisTextFileMaker/pkg/citation"
	"github.com/olgyan/IrbisTextFileMaker/pkg/irbis"
	"github.com/olgyan/IrbisTextFileMaker/pkg/journal"
	"github.com/olgyan/IrbisTextFileMaker/pkg/record"
	"github.com/olgyan/IrbisTextFileMaker/pkg/review"
	"github.com/olgyan/IrbisTextFileMaker/pkg/watch"
)

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [citation]",
		Short: "Parse one citation and add it to the journal",
		Long: `Parse a single citation given as arguments or on standard input.

Text without the ISBD area delimiter ". - " is rejected before parsing.

Example:
  itfmaker parse "Иванов И. И. Заголовок книги. - М. : Наука, 2020. - 200 с."
  xclip -o | itfmaker parse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read citation: %w", err)
				}
				text = string(data)
			}

			status, ok := citation.CheckPaste(text)
			a.status(status)
			if !ok {
				return nil
			}

			res, err := a.parser().Parse(text)
			a.status(citation.StatusFor(res, err))
			if err != nil {
				return nil
			}
			fmt.Fprint(a.out, irbis.Preview(res.Entry))

			if dryRun {
				return nil
			}
			j, err := a.journal()
			if err != nil {
				return err
			}
			defer j.Close()
			return j.Append(cmd.Context(), res.Entry)
		},
	}
	cmd.Flags().Bool("dry-run", false, "Show the record without storing it")
	return cmd
}

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Parse a file with one citation per line",
		Long: `Parse every non-blank line of a file and add the entries to the journal.

A line that cannot be parsed is reported and skipped; the other lines are
still added. Undecodable bytes are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			j, err := a.journal()
			if err != nil {
				return err
			}
			defer j.Close()

			report, err := parseFile(cmd.Context(), a, j, args[0], false)
			printReport(a, report)
			return err
		},
	}
}

// parseFile parses the citations of path into the journal. With replace set,
// entries an earlier read of path stored are removed first.
func parseFile(ctx context.Context, a *app, j *journal.Journal, path string, replace bool) (citation.BatchReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return citation.BatchReport{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if replace {
		if _, err := j.RemoveSource(ctx, path); err != nil {
			return citation.BatchReport{}, err
		}
	}
	store := func(e *record.Entry) error {
		if replace {
			return j.AppendFrom(ctx, path, e)
		}
		return j.Append(ctx, e)
	}
	var batch record.Batch
	return a.parser(citation.WithEntryHook(store)).ParseLines(f, &batch)
}

func printReport(a *app, report citation.BatchReport) {
	fmt.Fprintf(a.out, "%s: %d\n", citation.StatusParsed, report.Parsed)
	for _, failure := range report.Failures {
		if errors.Is(failure, citation.ErrNothingToParse) {
			fmt.Fprintf(a.out, "  строка %d: %s\n", failure.Line, citation.StatusNothing)
			continue
		}
		fmt.Fprintf(a.out, "  строка %d: %s\n", failure.Line, citation.Failure(failure.Err))
	}
	if len(report.LatinNames) > 0 {
		a.status(citation.StatusLatinNames)
		for _, name := range report.LatinNames {
			fmt.Fprintf(a.out, "  %s\n", name)
		}
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the entries in the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			j, err := a.journal()
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(a.out, "Журнал пуст.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprint(a.out, irbis.Preview(e))
			}
			repeats, err := j.Repeats(cmd.Context())
			if err != nil {
				return err
			}
			if repeats > 0 {
				fmt.Fprintf(a.out, "Повторных ссылок: %d\n", repeats)
			}
			return nil
		},
	}
}

func saveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the journal as an IRBIS import file",
		Long: `Write every journal entry to an IRBIS text import file (CRLF line ends,
"*****" after each record).

The default file is import_<YYYYMMDD>.txt in the IRBIS work directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			clearAfter, _ := cmd.Flags().GetBool("clear")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = filepath.Join(a.cfg.WorkDir, irbis.ImportFileName(time.Now()))
			}

			j, err := a.journal()
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.Entries(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				a.status(citation.StatusNothing)
				return nil
			}

			if err := writeImportFile(output, entries); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Saved %d records to %s\n", len(entries), output)

			if clearAfter {
				return j.Clear(cmd.Context())
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Import file path")
	cmd.Flags().Bool("clear", false, "Empty the journal after saving")
	return cmd
}

func writeImportFile(path string, entries []*record.Entry) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := irbis.WriteImport(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Export entries to an Excel workbook for checking",
		Long: `Write one spreadsheet row per stored subfield.

Entries come from the journal, or from an existing import file with --from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			from, _ := cmd.Flags().GetString("from")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			var entries []*record.Entry
			if from != "" {
				entries, err = importEntries(from)
			} else {
				entries, err = journalEntries(cmd.Context(), a)
			}
			if err != nil {
				return err
			}

			if err := review.Save(output, entries); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Wrote %d records to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "review.xlsx", "Workbook path")
	cmd.Flags().String("from", "", "Read records from an IRBIS import file")
	return cmd
}

func importEntries(path string) ([]*record.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := irbis.ReadImport(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	now := time.Now()
	entries := make([]*record.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, record.NewEntry("", rec, now))
	}
	return entries, nil
}

func journalEntries(ctx context.Context, a *app) ([]*record.Entry, error) {
	j, err := a.journal()
	if err != nil {
		return nil, err
	}
	defer j.Close()
	return j.Entries(ctx)
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Parse citation files dropped into the inbox",
		Long: `Watch the inbox directory and parse every .txt file created or rewritten
there into the journal. Re-parsing a file replaces its entries. Stop with
Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			scan, _ := cmd.Flags().GetBool("scan")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.cfg.Inbox
			}
			j, err := a.journal()
			if err != nil {
				return err
			}
			defer j.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			handle := func(path string) error {
				fmt.Fprintf(a.out, "%s\n", path)
				report, err := parseFile(ctx, a, j, path, true)
				printReport(a, report)
				return err
			}

			inbox := watch.NewInbox(dir, handle, a.logger)
			if err := inbox.Start(); err != nil {
				return err
			}
			defer inbox.Stop()
			if scan {
				if err := inbox.Scan(); err != nil {
					return err
				}
			}

			fmt.Fprintf(a.out, "Watching %s\n", dir)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().String("dir", "", "Inbox directory (default from config)")
	cmd.Flags().Bool("scan", false, "Parse files already in the inbox first")
	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			j, err := a.journal()
			if err != nil {
				return err
			}
			defer j.Close()

			n, err := j.Count(cmd.Context())
			if err != nil {
				return err
			}
			if err := j.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Removed %d entries\n", n)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			initFile, _ := cmd.Flags().GetBool("init")

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			if initFile {
				if _, err := os.Stat(a.cfgPath); err == nil {
					return fmt.Errorf("config %s already exists", a.cfgPath)
				}
				if err := a.cfg.Save(a.cfgPath); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created %s\n", a.cfgPath)
				return nil
			}

			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			fmt.Fprintf(a.out, "# %s\n%s", a.cfgPath, data)
			return nil
		},
	}
	cmd.Flags().Bool("init", false, "Write the default configuration file")
	return cmd
}
