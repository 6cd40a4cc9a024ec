package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/lexref/pkg/citation"
	"github.com/coolbeans/lexref/pkg/docstore"
	"github.com/coolbeans/lexref/pkg/search"
	"github.com/coolbeans/lexref/pkg/server"
	"github.com/coolbeans/lexref/pkg/statute"
	"github.com/coolbeans/lexref/pkg/validate"
)

func parseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <citation>",
		Short: "Parse a citation into its components",
		Long: `Parse a citation and print its components and canonical identifier.

Examples:
  lexref parse "Art. 1º, Lei nº 13.709, de 14 de agosto de 2018"
  lexref parse "Art. 5º, § 1º, inciso II, CF/88"
  lexref parse --format json "lei-13709-2018, art. 7"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := citation.Parse(strings.Join(args, " "))
			if a.format == formatJSON {
				if err := a.printJSON(parsed); err != nil {
					return err
				}
			} else {
				printCitation(a, parsed)
			}
			if !parsed.Valid {
				return exitError{msg: parsed.Error}
			}
			return nil
		},
	}
}

func printCitation(a *app, c citation.ParsedCitation) {
	if !c.Valid {
		a.printf("Invalid citation: %s\n", c.Error)
		return
	}
	a.printf("Grammar:    %s\n", c.Grammar)
	a.printf("Instrument: %s\n", c.Kind.Label())
	if c.Number != 0 {
		a.printf("Number:     %s\n", citation.GroupThousands(c.Number))
	}
	a.printf("Year:       %d\n", c.Year)
	a.printf("Article:    %s\n", c.Article)
	if c.Paragraph != "" {
		a.printf("Paragraph:  %s\n", c.Paragraph)
	}
	if c.Inciso != "" {
		a.printf("Inciso:     %s\n", c.Inciso)
	}
	if c.Alinea != "" {
		a.printf("Alinea:     %s\n", c.Alinea)
	}
	a.printf("ID:         %s\n", c.CanonicalID())
}

func formatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <citation>",
		Short: "Render a citation in a display style",
		Long: `Parse a citation and render it in one of the display styles:

  full      Art. 1º, Lei nº 13.709/2018
  short     Art. 1º, Lei 13.709/2018
  pinpoint  Art. 1º

Example:
  lexref format --style short "Art. 5º, Constituição Federal"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styleName, _ := cmd.Flags().GetString("style")
			style, err := citation.ParseStyle(styleName)
			if err != nil {
				return err
			}

			parsed := citation.Parse(strings.Join(args, " "))
			if !parsed.Valid {
				return fmt.Errorf("invalid citation: %s", parsed.Error)
			}
			formatted := citation.Format(parsed, style)
			if a.format == formatJSON {
				return a.printJSON(map[string]any{
					"citation":  parsed,
					"style":     style.String(),
					"formatted": formatted,
				})
			}
			a.printf("%s\n", formatted)
			return nil
		},
	}

	cmd.Flags().String("style", "full", "Display style (full, short, pinpoint)")

	return cmd
}

func resolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <statute>",
		Short: "Find the stored document a statute reference points to",
		Long: `Generate candidate identifiers for a free-form statute reference and
return the first one present in the store. When none is, the reference is
matched against document titles and the result is marked approximate.

Examples:
  lexref resolve "lei 13.709/2018"
  lexref resolve LGPD
  lexref resolve "Marco Civil da Internet"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			store, _, err := a.store(cmd.Context())
			if err != nil {
				return err
			}

			resolution, found, err := statute.ResolveExisting(cmd.Context(), input, store)
			if err != nil {
				return fmt.Errorf("resolution failed: %w", err)
			}
			candidates := statute.Candidates(input)

			if a.format == formatJSON {
				body := map[string]any{"candidates": candidates, "found": found}
				if found {
					body["resolution"] = resolution
				}
				return a.printJSON(body)
			}

			a.printf("Candidates: %s\n", strings.Join(candidates, ", "))
			if !found {
				a.printf("No matching document\n")
				return exitError{msg: "no matching document"}
			}
			if resolution.Approximate {
				a.printf("Resolved:   %s (approximate, by title %q)\n", resolution.ID, resolution.Candidate)
			} else {
				a.printf("Resolved:   %s (via %q)\n", resolution.ID, resolution.Candidate)
			}
			return nil
		},
	}
}

func validateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <citation>",
		Short: "Check a citation against the document store",
		Long: `Parse a citation and check that the cited document exists, is in force
and contains the cited article.

Examples:
  lexref validate "Art. 5º, LGPD"
  lexref validate --fail-on-warn "Art. 1º, Lei 8.666/1993"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failOnWarn, _ := cmd.Flags().GetBool("fail-on-warn")

			store, _, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			validator := validate.New(store, validate.WithLogger(a.logger))

			result, err := validator.Validate(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			if a.format == formatJSON {
				if err := a.printJSON(result); err != nil {
					return err
				}
			} else {
				a.printf("%s", result.String())
			}

			if !result.Citation.Valid {
				return exitError{msg: "invalid citation"}
			}
			if failOnWarn && len(result.Warnings) > 0 {
				return exitError{msg: fmt.Sprintf("%d warning(s)", len(result.Warnings))}
			}
			return nil
		},
	}

	cmd.Flags().Bool("fail-on-warn", false, "Exit non-zero when validation produces warnings")

	return cmd
}

func searchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over document titles and provisions",
		Long: `Search the store. The query is rewritten into safe variants which are
tried in order until one is accepted:

  dados pessoais          both words
  "dados pessoais"        the phrase
  licit*                  prefix
  dados OR informacao     either word
  licitacao NOT 8666      exclusion

Example:
  lexref search --limit 5 "tratamento de dados"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			raw := strings.Join(args, " ")

			store, _, err := a.store(cmd.Context())
			if err != nil {
				return err
			}

			hits, variant, err := search.Run(cmd.Context(), raw, func(ctx context.Context, variant string) ([]docstore.SearchHit, error) {
				a.logger.Debug("trying search variant", zap.String("variant", variant))
				return store.Search(ctx, variant, limit)
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if a.format == formatJSON {
				return a.printJSON(map[string]any{
					"variants": search.BuildQueryVariants(raw),
					"variant":  variant,
					"hits":     hits,
				})
			}

			a.printf("Query: %s (%d hits)\n\n", variant, len(hits))
			for _, hit := range hits {
				location := hit.DocumentID
				if hit.ProvisionRef != "" {
					location += ", art. " + hit.ProvisionRef
				}
				a.printf("  %s\n    %s\n", location, hit.Snippet)
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", docstore.DefaultSearchLimit, "Maximum number of hits")

	return cmd
}

func seedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the federal corpus into the document store",
		Long: `Load documents into the configured store. Without --corpus the embedded
corpus of federal instruments is used. Documents already present are
skipped unless --force is given.

Examples:
  lexref seed
  lexref seed --corpus my-corpus.yaml --force
  lexref seed --store postgres --dsn postgres://localhost/lexref`,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpusPath, _ := cmd.Flags().GetString("corpus")
			force, _ := cmd.Flags().GetBool("force")

			var (
				docs []*docstore.Document
				err  error
			)
			if corpusPath != "" {
				docs, err = docstore.LoadCorpusFile(corpusPath)
			} else {
				docs, err = docstore.DefaultCorpus()
			}
			if err != nil {
				return err
			}

			w, err := a.writer(cmd.Context())
			if err != nil {
				return err
			}

			report, err := docstore.Seed(cmd.Context(), w, docs, force)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}

			if a.format == formatJSON {
				return a.printJSON(report)
			}

			a.printf("Seeding %d documents\n\n", report.TotalAttempted)
			for _, entry := range report.Entries {
				switch entry.Status {
				case "ingested":
					a.printf("  [OK]   %s\n", entry.ID)
				case "skipped":
					a.printf("  [SKIP] %-22s already in store\n", entry.ID)
				case "failed":
					a.printf("  [FAIL] %-22s %s\n", entry.ID, entry.Error)
				}
			}
			a.printf("\nSeed complete: %d ingested, %d skipped, %d failed\n",
				report.Succeeded, report.Skipped, report.Failed)

			if report.Failed > 0 {
				return exitError{msg: fmt.Sprintf("%d document(s) failed", report.Failed)}
			}
			return nil
		},
	}

	cmd.Flags().String("corpus", "", "YAML corpus file (default: embedded federal corpus)")
	cmd.Flags().Bool("force", false, "Overwrite documents that already exist")

	return cmd
}

func aliasesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aliases",
		Short: "List the popular names the parser understands",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := citation.Aliases()
			if a.format == formatJSON {
				table := make(map[string]string, len(names))
				for _, name := range names {
					entry, _ := citation.LookupAlias(name)
					table[name] = entry.CanonicalID()
				}
				return a.printJSON(table)
			}
			for _, name := range names {
				entry, _ := citation.LookupAlias(name)
				a.printf("%-45s %s\n", name, entry.CanonicalID())
			}
			return nil
		},
	}
}

func libraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Inspect and manage the local document library",
		Long: `Inspect and manage the on-disk document library.

Examples:
  lexref library list
  lexref library stats
  lexref library remove lei-8666-1993`,
	}

	cmd.AddCommand(libraryListCmd(a))
	cmd.AddCommand(libraryStatsCmd(a))
	cmd.AddCommand(libraryRemoveCmd(a))

	return cmd
}

func libraryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all documents in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.library(false)
			if err != nil {
				return err
			}
			entries := lib.ListDocuments()
			if a.format == formatJSON {
				return a.printJSON(entries)
			}
			if len(entries) == 0 {
				a.printf("Library is empty. Run: lexref seed\n")
				return nil
			}
			a.printf("%-20s %-9s %5s  %s\n", "ID", "STATUS", "ARTS", "TITLE")
			for _, entry := range entries {
				a.printf("%-20s %-9s %5d  %s\n", entry.ID, entry.Status, entry.Provisions, entry.Title)
			}
			return nil
		},
	}
}

func libraryStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.library(false)
			if err != nil {
				return err
			}
			stats := lib.Stats()
			if a.format == formatJSON {
				return a.printJSON(stats)
			}
			a.printf("Library:    %s\n", lib.Path())
			a.printf("Documents:  %d\n", stats.TotalDocuments)
			a.printf("Provisions: %d\n", stats.TotalProvisions)
			statuses := make([]string, 0, len(stats.ByStatus))
			for status := range stats.ByStatus {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				a.printf("  %-10s %d\n", status, stats.ByStatus[status])
			}
			return nil
		},
	}
}

func libraryRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a document from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.library(false)
			if err != nil {
				return err
			}
			if err := lib.RemoveDocument(args[0]); err != nil {
				if errors.Is(err, docstore.ErrNotFound) {
					return fmt.Errorf("document %s is not in the library", args[0])
				}
				return err
			}
			a.printf("Removed %s\n", args[0])
			return nil
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long: `Serve citation parsing, formatting, validation, resolution and search
over HTTP. Prometheus metrics are exposed at /metrics.

With --watch the library is reloaded whenever another process (for example
'lexref seed') rewrites it.

Example:
  lexref serve --addr :8080 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			addr := a.cfg.Server.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}

			store, lib, err := a.store(cmd.Context())
			if err != nil {
				return err
			}

			if watch {
				if lib == nil {
					return fmt.Errorf("--watch requires the library store")
				}
				cached, _ := store.(*docstore.Cached)
				err := lib.Watch(func(err error) {
					if err != nil {
						a.logger.Error("library reload failed", zap.Error(err))
						return
					}
					if cached != nil {
						cached.Purge()
					}
					a.logger.Info("library reloaded", zap.Int("documents", lib.Stats().TotalDocuments))
				})
				if err != nil {
					return err
				}
			}

			srv := server.New(store, server.WithLogger(a.logger))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().Bool("watch", false, "Reload the library when it changes on disk")

	return cmd
}
