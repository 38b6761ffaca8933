package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/mwantia/uvfs/command"
	"github.com/mwantia/uvfs/command/builtin"
	"github.com/mwantia/uvfs/config"
	"github.com/spf13/cobra"

	_ "github.com/mwantia/uvfs/backend/consul"
	_ "github.com/mwantia/uvfs/backend/local"
	_ "github.com/mwantia/uvfs/backend/memory"
	_ "github.com/mwantia/uvfs/backend/postgres"
	_ "github.com/mwantia/uvfs/backend/s3"
	_ "github.com/mwantia/uvfs/backend/sftp"
	_ "github.com/mwantia/uvfs/backend/sqlite"
)

var (
	configFile string = os.Getenv("UVFS_CONFIG")
	logLevel   string
	exitCode   int
)

var rootCmd = &cobra.Command{
	Use:   "uvfs [flags] <command> [args...]",
	Short: "Run one file command against the mounts of a workspace",
	Long: "Run one file command against the mounts of a workspace.\n" +
		"Targets are addressed as 'mount:/path'. Run 'uvfs help' for all commands.",
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFile, "config", "c", configFile,
		"Workspace file (.toml, .yaml or .yml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "",
		"Override the configured log level",
	)
	// Everything after the command name belongs to the command
	rootCmd.Flags().SetInterspersed(false)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	} else if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	ws, err := command.OpenWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Close(context.Background()); err != nil {
			logger.Warn("Failed to close workspace: %v", err)
		}
	}()

	center := command.NewCommandCenter(builtin.All()...)

	code, err := center.Execute(ctx, ws, args, cmd.OutOrStdout())
	if err != nil {
		logger.Error("%v", err)
	}

	exitCode = code
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(command.ExitFailure)
	}

	os.Exit(exitCode)
}
