package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/dataset"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/docx"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/html"
)

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"g"},
		Short:   "Generate a report from a template and a data file",
		Long: `Generate fills the template with the data file and writes the report.
The format extension is added to the output path when it is missing.

Examples:
  reportgen generate -t invoice.docx -d invoice.yml -o out/invoice
  reportgen generate -t list.html -d list.json -o list.html --sanitize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, loadOptions(v))
		},
	}
	addTemplateFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "output file")
	return cmd
}

func newValidateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the tags of a template against a data file",
		Long: `Validate parses every template part and checks that tags are closed, blocks
are nested properly and keys refer to properties of the right kind.
No output is written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, loadOptions(v))
		},
	}
	addTemplateFlags(cmd)
	return cmd
}

func runGenerate(cmd *cobra.Command, o options) error {
	if err := o.require("template", "data", "out"); err != nil {
		return err
	}

	gen, err := newGenerator(o, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	data, err := dataset.LoadFile(o.Data)
	if err != nil {
		return err
	}

	target, err := gen.GenerateFile(data, data.Keys(), o.AutoMap, o.Template, o.Out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", target)
	return nil
}

func runValidate(cmd *cobra.Command, o options) error {
	if err := o.require("template", "data"); err != nil {
		return err
	}

	gen, err := newGenerator(o, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	data, err := dataset.LoadFile(o.Data)
	if err != nil {
		return err
	}
	template, err := os.ReadFile(o.Template)
	if err != nil {
		return reportgen.NewDocumentError("read", o.Template, err)
	}

	if err := gen.Validate(data, data.Keys(), o.AutoMap, template); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Template %s is valid\n", o.Template)
	return nil
}

// newGenerator builds a generator from the environment configuration and the options
func newGenerator(o options, logOutput io.Writer) (*reportgen.Generator, error) {
	config := reportgen.ConfigFromEnvironment()
	config.StrictMode = config.StrictMode || o.Strict
	if o.LogLevel != "" {
		config.LogLevel = strings.ToLower(o.LogLevel)
	}
	if o.Lang != "" {
		config.Language = o.Lang
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := newBackend(o)
	if err != nil {
		return nil, err
	}

	cache := reportgen.NewSourceCacheWithConfig(reportgen.CacheConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
	logger := reportgen.NewLogger(logOutput, reportgen.ParseLogLevel(config.LogLevel))

	return reportgen.New(backend,
		reportgen.WithConfig(config),
		reportgen.WithLogger(logger),
		reportgen.WithCache(cache),
	), nil
}

func newBackend(o options) (reportgen.Backend, error) {
	format := strings.ToLower(o.Format)
	if format == "" {
		switch strings.ToLower(filepath.Ext(o.Template)) {
		case ".docx":
			format = "docx"
		case ".html", ".htm":
			format = "html"
		default:
			return nil, fmt.Errorf("cannot detect the format of %s, use --format", o.Template)
		}
	}

	switch format {
	case "docx":
		return docx.NewBackend(), nil
	case "html":
		if o.Sanitize {
			return html.NewBackend(html.WithStrictSanitizer()), nil
		}
		return html.NewBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: docx, html)", o.Format)
	}
}
