package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ngtsc-go/packages/compiler-cli/src/ngtsc/program"
	"ngtsc-go/packages/compiler/core"
)

// errDiagnostics is returned once diagnostics have been printed, so that the process fails
// without printing them twice.
var errDiagnostics = errors.New("compilation reported errors")

var (
	errorColor     = color.New(color.FgRed, color.Bold)
	componentColor = color.New(color.FgCyan, color.Bold)
	labelColor     = color.New(color.Faint)
	okColor        = color.New(color.FgGreen)
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ngtsc-go",
		Short:         "Angular template scope analysis",
		Long:          `ngtsc-go resolves the compilation scopes of Angular components and binds their templates against them`,
		Version:       core.VERSION.Full,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			colorFlag, err := cmd.Flags().GetString("color")
			if err != nil {
				return err
			}
			switch strings.ToLower(colorFlag) {
			case "on":
				color.NoColor = false
			case "off":
				color.NoColor = true
			case "auto":
			default:
				return fmt.Errorf("unknown color mode %q (auto|on|off)", colorFlag)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().String("config", "", "TOML options file")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error), overrides the options file")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newScopeCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	return rootCmd
}

// loadCompilation builds the compilation of the manifest at manifestURL with the options of
// the --config file.
func loadCompilation(cmd *cobra.Command, manifestURL string) (*program.Compilation, error) {
	options := program.DefaultOptions()
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if options, err = program.LoadOptions(configPath); err != nil {
			return nil, err
		}
	}
	logLevel, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		options.LogLevel = logLevel
		if err := options.Validate(); err != nil {
			return nil, errors.Wrap(err, "--log-level")
		}
	}
	logger := program.NewLogger(options.LogLevel, options.LogFormat, cmd.ErrOrStderr())

	manifest, err := program.LoadManifest(cmd.Context(), nil, manifestURL)
	if err != nil {
		return nil, err
	}
	compilation, err := program.NewCompilation(cmd.Context(), manifest, options, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile %s", manifestURL)
	}
	return compilation, nil
}
