package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benjaminschreck/go-reportgen/pkg/reportgen"
	"github.com/benjaminschreck/go-reportgen/pkg/reportgen/dataset"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate a report whenever the template or the data changes",
		Long: `Watch generates the report once and then again each time the template or
the data file is saved. Changes arriving within the debounce delay are
combined into one run. Failed runs are logged and watching continues.

Examples:
  reportgen watch -t report.html -d report.yml -o out/report
  reportgen watch -t invoice.docx -d invoice.yml -o invoice.docx --debounce 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, loadOptions(v))
		},
	}
	addTemplateFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "output file")
	cmd.Flags().Duration("debounce", 300*time.Millisecond, "delay used to group rapid changes")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, o options) error {
	if err := o.require("template", "data", "out"); err != nil {
		return err
	}
	if o.Debounce <= 0 {
		o.Debounce = 300 * time.Millisecond
	}

	gen, err := newGenerator(o, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger := reportgen.NewLogger(cmd.ErrOrStderr(), reportgen.ParseLogLevel(gen.Config().LogLevel)).
		WithField("command", "watch")

	regenerate := func() error {
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

	if err := regenerate(); err != nil {
		logger.Error("initial generation failed: %v", err)
	}

	fw, err := newFileWatcher(o.Debounce, o.Template, o.Data)
	if err != nil {
		return err
	}
	fw.onError = func(err error) {
		logger.Error("%v", err)
	}

	logger.Info("watching %s and %s", o.Template, o.Data)
	return fw.Run(ctx, func(paths []string) error {
		logger.WithField("files", paths).Debug("change detected")
		return regenerate()
	})
}
