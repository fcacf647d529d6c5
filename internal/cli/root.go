// Package cli is the ggufctl command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ggufctl/internal/app"
	"ggufctl/internal/config"
)

// newApp is swapped out by tests.
var newApp = app.New

// session is the per-invocation state built by the persistent pre-run hook.
type session struct {
	flags globalFlags
	cfg   config.Config
	app   *app.App
}

// buildRootCmd constructs the command tree. Every command shares one session.
func buildRootCmd() *cobra.Command {
	s := &session{}
	root := &cobra.Command{
		Use:           "ggufctl",
		Short:         "Launch and query a local llama.cpp llama-server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	pf := root.PersistentFlags()
	pf.StringVar(&s.flags.configPath, "config", "", "Config file (.yaml, .yml, .json or .toml)")
	pf.StringVar(&s.flags.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error (defaults GGUFCTL_LOG_LEVEL or info)")
	pf.IntVar(&s.flags.port, "port", config.DefaultPort, "llama-server port (defaults GGUFCTL_PORT or 8080)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(&s.flags, func(name string) bool {
			f := cmd.Flags().Lookup(name)
			return f != nil && f.Changed
		})
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		a, err := newApp(cfg, app.Options{
			Logger:   newLogger(cfg, cmd.ErrOrStderr()),
			Progress: cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		s.cfg = a.Config()
		s.app = a
		return nil
	}

	root.AddCommand(
		modelsCmd(s),
		launchCmd(s),
		promptCmd(s),
		runCmd(s),
		serveCmd(s),
		completionCmd(root),
	)
	return root
}

func completionCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	// Completion output never needs a config or a server.
	c.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil }
	c.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	c.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	c.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	c.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	return c
}

// MainWithArgs runs the CLI and returns the process exit code.
func MainWithArgs(args []string) int {
	root := buildRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// Main returns an exit code for use by cmd/ggufctl.
func Main() int { return MainWithArgs(os.Args[1:]) }
