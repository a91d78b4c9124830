// Accessibility Checker
// Computes accessible names, ARIA validity and table structure for HTML and
// Markdown files without requiring a running server
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"a11y-server/internal/analysis"
	"a11y-server/internal/aria"
	"a11y-server/internal/source"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

var errLoadFailed = errors.New("one or more files could not be analyzed")

type options struct {
	version  string
	format   string
	sanitize bool
	output   string
	verbose  bool
	maxBytes int64
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "accessibility-check",
		Short: "Static accessibility checker for HTML and Markdown documents",
		Long: `accessibility-check computes the accessible name and description of every
element, validates ARIA roles and attributes and models table structure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.version, "aria-version", string(aria.DefaultVersion), "WAI-ARIA version (1.2, 1.3)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	analyzeCmd := &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Analyze one or more HTML or Markdown files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	analyzeCmd.Flags().StringVar(&opts.format, "format", "auto", "Input format (auto, html, markdown)")
	analyzeCmd.Flags().BoolVar(&opts.sanitize, "sanitize", false, "Sanitize HTML input before analysis")
	analyzeCmd.Flags().StringVarP(&opts.output, "output", "o", OutputText, "Output format (text, json)")
	analyzeCmd.Flags().Int64Var(&opts.maxBytes, "max-bytes", 0, "Reject files larger than this (0 for no limit)")

	rolesCmd := &cobra.Command{
		Use:   "roles",
		Short: "List the roles of a WAI-ARIA version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoles(cmd.OutOrStdout(), opts.version)
		},
	}

	rootCmd.AddCommand(analyzeCmd, rolesCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// fileResult pairs a file with its report or load error.
type fileResult struct {
	File   string           `json:"file"`
	Report *analysis.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func runAnalyze(ctx context.Context, w io.Writer, opts *options, files []string) error {
	version, err := aria.ParseVersion(opts.version)
	if err != nil {
		return err
	}
	if opts.output != OutputText && opts.output != OutputJSON {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	var format source.Format
	if opts.format != "auto" {
		if format, err = source.ParseFormat(opts.format); err != nil {
			return err
		}
	}
	engine, err := analysis.NewEngine(version)
	if err != nil {
		return err
	}

	results := make([]fileResult, 0, len(files))
	failed := false
	for _, file := range files {
		slog.Debug("analyzing", "file", file)
		report, err := analyzeFile(ctx, engine, file, format, opts)
		res := fileResult{File: file, Report: report}
		if err != nil {
			failed = true
			res.Error = err.Error()
			slog.Debug("analysis failed", "file", file, "error", err)
		}
		results = append(results, res)
	}

	switch opts.output {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	default:
		fmt.Fprintf(w, "Accessibility Checker (WAI-ARIA %s)\n", version)
		fmt.Fprintf(w, "========================================\n")
		for _, res := range results {
			printResult(w, res, opts.verbose)
		}
	}

	if failed {
		return errLoadFailed
	}
	return nil
}

func analyzeFile(ctx context.Context, engine *analysis.Engine, file string, format source.Format, opts *options) (*analysis.Report, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == "" {
		format = source.FormatForFile(file)
	}
	doc, err := source.Load(ctx, f, source.Options{
		Format:   format,
		Sanitize: opts.sanitize,
		MaxBytes: opts.maxBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return engine.Analyze(ctx, doc)
}

func runRoles(w io.Writer, v string) error {
	version, err := aria.ParseVersion(v)
	if err != nil {
		return err
	}
	tables, err := aria.Tables(version)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "WAI-ARIA %s roles\n", version)
	for _, role := range tables.Roles() {
		p, ok := tables.Pattern(role)
		if !ok {
			continue
		}
		types := make([]string, len(p.RoleType))
		for i, rt := range p.RoleType {
			types[i] = string(rt)
		}
		fmt.Fprintf(w, "  %-20s %s\n", role, strings.Join(types, " "))
	}
	return nil
}
