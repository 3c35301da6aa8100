package main

import (
	"context"
	"io"
	"os"

	"github.com/milosgajdos/go-fusion/config"
	"github.com/milosgajdos/go-fusion/internal/monitoring"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// NewCmd returns root command of the estimate CLI
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "estimate [command] [flags]",
		Short:         "estimate tracks objects and localizes vehicles from noisy sensor data",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: setupLogging,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "`<path>` to .json or .yaml config file")
	rootCmd.PersistentFlags().String("log-file", "", "`<path>` to rotated log file; logs go to stderr when empty")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "disable diagnostic logging")
	rootCmd.PersistentFlags().String("plot", "", "`<path>` to save trajectory plot to")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print every estimate")

	fusionCmd := &cobra.Command{
		Use:   "fusion [flags]",
		Short: "Track a moving object by fusing position and range/bearing measurements",
		RunE:  doFusion,
	}
	fusionCmd.Flags().StringP("input", "i", "", "`<path>` to measurement log; simulated when empty")
	fusionCmd.Flags().Bool("smooth", false, "smooth the track with Rauch-Tung-Striebel smoother")

	localizeCmd := &cobra.Command{
		Use:   "localize [flags]",
		Short: "Localize a simulated vehicle in a landmark map with a particle filter",
		RunE:  doLocalize,
	}
	localizeCmd.Flags().StringP("map", "m", "", "`<path>` to landmark map; generated when empty")
	localizeCmd.Flags().String("dump", "", "`<path>` to append particles to after every step")

	rootCmd.AddCommand(
		fusionCmd,
		localizeCmd,
	)
	return rootCmd
}

func setupLogging(cmd *cobra.Command, args []string) error {
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return err
	}
	if quiet {
		monitoring.SetLogger(nil)
		return nil
	}

	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if logFile != "" {
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
			LocalTime:  true,
		}
	}
	monitoring.SetOutput(w, "estimate: ")

	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}
