package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MarcoPoloResearchLab/ost/internal/config"
)

var (
	cfgFile string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ost-server",
		Short: "Care event tracker context server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
		SilenceUsage: true,
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the context API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	})
	rootCmd.AddCommand(newConvertCommand())
	return rootCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("backend", defaults.GetString("backend"), "Context backend (memory, fake, file, kv, sqlite, s3, remote)")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("context-file", defaults.GetString("context.file_path"), "JSON context file for the file backend")
	cmd.PersistentFlags().String("context-source", defaults.GetString("context.source_path"), "Optional JSON file to load the file backend from")
	cmd.PersistentFlags().String("kv-path", defaults.GetString("kv.path"), "bbolt database path for the kv backend")
	cmd.PersistentFlags().String("sqlite-path", defaults.GetString("sqlite.path"), "SQLite database path")
	cmd.PersistentFlags().String("s3-bucket", defaults.GetString("s3.bucket"), "S3 bucket for the s3 backend")
	cmd.PersistentFlags().String("remote-endpoint", defaults.GetString("remote.endpoint"), "Upstream API endpoint for the remote backend")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "backend", "backend")
	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "context.file_path", "context-file")
	bindFlag(cmd, "context.source_path", "context-source")
	bindFlag(cmd, "kv.path", "kv-path")
	bindFlag(cmd, "sqlite.path", "sqlite-path")
	bindFlag(cmd, "s3.bucket", "s3-bucket")
	bindFlag(cmd, "remote.endpoint", "remote-endpoint")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}
