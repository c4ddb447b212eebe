// Command brainless trains tabular predictors from declared column roles and
// serves predictions from stored snapshots.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/brainless/pkg/config"
	"github.com/ajitpratap0/brainless/pkg/logger"
)

var version = "0.1.0"

// app carries what every command needs once flags are parsed.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "brainless",
		Short: "Brainless - automated predictors for tabular data",
		Long: `Brainless builds a feature pipeline from declared column roles, searches
model families with cross-validation and keeps the best one.

Every flag can also be set through the environment, e.g. BRAINLESS_LOG_LEVEL=debug.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().String("config", "", "Path to a YAML run configuration")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	root.PersistentFlags().String("aws-region", "", "AWS region for s3:// locations")

	root.AddCommand(
		newTrainCmd(a),
		newPredictCmd(a),
		newDescribeCmd(a),
		newInspectCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup binds the executing command's flags to BRAINLESS_* variables, loads
// the configuration and initializes the global logger.
func (a *app) setup(cmd *cobra.Command) error {
	a.v = viper.New()
	a.v.SetEnvPrefix("BRAINLESS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(a.v.GetString("config"))
	if err != nil {
		return err
	}
	if level := a.v.GetString("log-level"); level != "" {
		cfg.Observability.LogLevel = level
	}
	a.cfg = cfg

	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Encoding:    cfg.Observability.LogEncoding,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}
	a.log = logger.For("brainless-cli")
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "Brainless v%s\n", version)
		},
	}
}
