package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// newRootCmd builds the command tree. Settings are read from flags, REPORTGEN_*
// environment variables and a .reportgen.yml config file, in that order.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "reportgen",
		Short: "Fill DOCX and HTML templates with data",
		Long: `reportgen fills document templates with data from a YAML or JSON file.

Tags in the template text are replaced by values:
  {{key}}                  field value, or a column inside a block
  {<dataset:row:column>}   a single cell
  {[dataset]} ... {#dataset#}
                           repeat the enclosed paragraphs or table rows per row

Quick Start:
  reportgen generate -t invoice.docx -d invoice.yml -o out/invoice
  reportgen validate -t invoice.docx -d invoice.yml
  reportgen watch -t report.html -d report.yml -o out/report`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile, cmd.Flags())
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .reportgen.yml, can also use REPORTGEN_CONFIG_FILE env var)")
	root.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error, off)")

	root.AddCommand(
		newGenerateCmd(v),
		newValidateCmd(v),
		newWatchCmd(v),
		newVersionCmd(),
	)
	return root
}

// initConfig binds the flags of the running command and reads the config file
func initConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix("REPORTGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	explicit := true
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case os.Getenv("REPORTGEN_CONFIG_FILE") != "":
		v.SetConfigFile(os.Getenv("REPORTGEN_CONFIG_FILE"))
	default:
		explicit = false
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".reportgen")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// options are the settings shared by the generate, validate and watch commands
type options struct {
	Template string
	Data     string
	Out      string
	Format   string
	Lang     string
	LogLevel string
	AutoMap  bool
	Strict   bool
	Sanitize bool
	Debounce time.Duration
}

func loadOptions(v *viper.Viper) options {
	return options{
		Template: v.GetString("template"),
		Data:     v.GetString("data"),
		Out:      v.GetString("out"),
		Format:   v.GetString("format"),
		Lang:     v.GetString("lang"),
		LogLevel: v.GetString("log-level"),
		AutoMap:  v.GetBool("auto-map"),
		Strict:   v.GetBool("strict"),
		Sanitize: v.GetBool("sanitize"),
		Debounce: v.GetDuration("debounce"),
	}
}

func (o options) require(names ...string) error {
	values := map[string]string{
		"template": o.Template,
		"data":     o.Data,
		"out":      o.Out,
	}
	var missing []string
	for _, name := range names {
		if values[name] == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func addTemplateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("template", "t", "", "template file (.docx, .html)")
	cmd.Flags().StringP("data", "d", "", "data file (YAML or JSON)")
	cmd.Flags().StringP("format", "f", "", "template format (docx, html); detected from the template extension when empty")
	cmd.Flags().Bool("auto-map", false, "resolve numeric tag keys as property ids")
	cmd.Flags().Bool("strict", false, "fail on tags that resolve to no property")
	cmd.Flags().String("lang", "", "language used to format numbers (e.g. en, de)")
	cmd.Flags().Bool("sanitize", false, "strip markup from values written to HTML")
}
