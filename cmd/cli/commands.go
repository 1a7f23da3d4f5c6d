
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"newsinlevels-crawler/internal/config"
	"newsinlevels-crawler/internal/ioformats"
	"newsinlevels-crawler/internal/models"
	"newsinlevels-crawler/internal/pipeline"
)

func newRunCommand() *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "run [listing-url]",
		Short: "Scrape the listing, reconcile with the caches and attach article details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), func(cfg *config.Config, log *slog.Logger, p *pipeline.Pipeline) error {
				url := cfg.SourceURL
				if len(args) == 1 {
					url = args[0]
				}
				if output == "" {
					output = cfg.Output.Path
				}
				if format == "" {
					format = cfg.Output.Format
				}

				res, err := p.Run(cmd.Context(), url)
				if err != nil {
					log.Warn("cli: run interrupted", "err", err)
				}
				printSummary(cmd.ErrOrStderr(), res)
				if err := writeOutput(cmd.OutOrStdout(), output, format, res.Articles); err != nil {
					log.Error("cli: write output", "path", output, "err", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write articles to this file (default: output.path, or stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json or ndjson (default: output.format)")
	return cmd
}

func newListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list [listing-url]",
		Short: "Print the articles on the listing page without touching the caches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), func(cfg *config.Config, log *slog.Logger, p *pipeline.Pipeline) error {
				url := cfg.SourceURL
				if len(args) == 1 {
					url = args[0]
				}
				recs, err := p.ScrapeListing(cmd.Context(), url)
				if err != nil {
					log.Error("cli: listing unavailable", "url", url, "err", err)
					recs = []models.ListingRecord{}
				}
				return ioformats.Write(cmd.OutOrStdout(), format, recs)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", ioformats.FormatJSON, "output format: json or ndjson")
	return cmd
}

func newDetailCommand() *cobra.Command {
	var input, format string

	cmd := &cobra.Command{
		Use:   "detail [article-url...]",
		Short: "Scrape article detail pages without touching the caches",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append([]string(nil), args...)
			if input != "" {
				fromFile, err := ioformats.ReadURLs(input)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("at least one article url or --input is required")
			}
			return withPipeline(cmd.Context(), func(cfg *config.Config, log *slog.Logger, p *pipeline.Pipeline) error {
				results := p.ScrapeDetails(cmd.Context(), urls)
				for _, r := range results {
					if r.Err != nil {
						log.Error("cli: detail unavailable", "url", r.URL, "err", r.Err)
					}
				}
				return ioformats.Write(cmd.OutOrStdout(), format, results)
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "file with article urls (csv with a url/title_link column, or ndjson)")
	cmd.Flags().StringVarP(&format, "format", "f", ioformats.FormatJSON, "output format: json or ndjson")
	return cmd
}

func newTextCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text [url]",
		Short: "Print every visible text line of a page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPipeline(cmd.Context(), func(cfg *config.Config, log *slog.Logger, p *pipeline.Pipeline) error {
				url := cfg.SourceURL
				if len(args) == 1 {
					url = args[0]
				}
				lines, err := p.ScrapeText(cmd.Context(), url)
				if err != nil {
					log.Error("cli: page unavailable", "url", url, "err", err)
					return nil
				}
				_, err = io.WriteString(cmd.OutOrStdout(), strings.Join(lines, "\n")+"\n")
				return err
			})
		},
	}
	return cmd
}

// writeOutput writes to path when set, otherwise to stdout.
func writeOutput(stdout io.Writer, path, format string, articles []models.ListingRecord) error {
	if path == "" {
		return ioformats.Write(stdout, format, articles)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ioformats.Write(f, format, articles); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, res pipeline.Result) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Fprintf(w, "%d articles", len(res.Articles))
	fmt.Fprintf(w, " in %s (run %s)\n", res.Duration.Round(time.Millisecond), res.RunID)
	if res.ListFromCache {
		fmt.Fprintf(w, "  list:    %d reused, %d new, %d gone\n", res.Reconcile.Reused, res.Reconcile.Added, res.Reconcile.Dropped)
	} else {
		fmt.Fprintf(w, "  list:    fetched live (%d new)\n", res.Reconcile.Added)
	}
	green.Fprintf(w, "  details: %d from cache", res.DetailHits)
	yellow.Fprintf(w, ", %d fetched", res.DetailFetched)
	if res.DetailFailed > 0 {
		red.Fprintf(w, ", %d failed", res.DetailFailed)
	}
	fmt.Fprintln(w)
	if res.Skipped > 0 {
		yellow.Fprintf(w, "  skipped: %d records without a unique title_link\n", res.Skipped)
	}
}
