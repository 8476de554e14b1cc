// Package cli implements the moodify command line.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/justestif/moodify/internal/config"
)

// app carries what every command needs after flags and config are read.
type app struct {
	v       *viper.Viper
	cfgFile string
	dotEnv  string
	cfg     config.Config
	logger  *slog.Logger
}

// NewRootCommand builds the moodify command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "moodify",
		Short:         "Turns how you feel into a Spotify playlist",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/"+config.DefaultFileName+")")
	flags.StringVar(&a.dotEnv, "env-file", ".env", "dotenv file loaded before the environment is read")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("market", "US", "market the catalog searches in")
	flags.Int("concurrency", 1, "catalog calls in flight per phase")
	flags.Float64("rps", 10, "catalog requests per second")
	flags.Int("read-attempts", 3, "attempts for catalog reads on server errors")
	flags.String("redirect-uri", "http://127.0.0.1:8080/callback", "OAuth redirect URI registered with Spotify")
	a.bind(flags, map[string]string{
		"log-level":     config.KeyLogLevel,
		"market":        config.KeyMarket,
		"concurrency":   config.KeyConcurrency,
		"rps":           config.KeyRequestsPerSecond,
		"read-attempts": config.KeyReadAttempts,
		"redirect-uri":  config.KeyRedirectURI,
	})

	root.AddCommand(
		newServeCommand(a),
		newClassifyCommand(a),
		newMoodsCommand(a),
		newGenerateCommand(a),
	)
	return root
}

// bind connects flags to config keys. Keys keep their env and file values
// unless the flag is set on the command line.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		// BindPFlag only fails for a nil flag.
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}
}

func (a *app) init(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(a.dotEnv); err != nil {
		return err
	}

	used, err := config.ReadFile(a.v, a.cfgFile)
	if err != nil {
		return err
	}

	a.cfg, err = config.Load(a.v)
	if err != nil {
		return err
	}

	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: a.cfg.LogLevel}))
	slog.SetDefault(a.logger)

	if used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

// Execute runs the root command and returns its error.
func Execute() error {
	if err := NewRootCommand().Execute(); err != nil {
		return fmt.Errorf("moodify: %w", err)
	}
	return nil
}
