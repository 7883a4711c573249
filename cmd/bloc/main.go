package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/bloc/internal/config"
	"github.com/vango-dev/bloc/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐ ┬  ┌─┐┌─┐
  ├┴┐│  │ ││
  └─┘┴─┘└─┘└─┘
`

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	var (
		configPath string
		noColor    bool
	)

	rootCmd := &cobra.Command{
		Use:   "bloc",
		Short: "Block and fiber rendering core",
		Long: `bloc renders component trees into an element host.

Renders are batched per checkpoint, run asynchronously and commit
atomically. The CLI drives a sample application:

  • demo   scripted edits printed step by step
  • serve  the sample app behind a live inspector`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
				errors.DisableColors()
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nearest bloc.json, bloc.yaml or bloc.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		demoCmd(&configPath),
		serveCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// loadConfig loads path, or the nearest config file when path is empty.
// A missing config file falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Find(".")
		if errors.CodeOf(err) == "B300" {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printError(err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		fmt.Fprint(os.Stderr, e.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", red("Error:"), err)
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}
