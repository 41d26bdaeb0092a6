package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/config"
	"github.com/abhisek/mockprep/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mockprep",
	Short: "AI mock interview coach",
	Long: "mockprep runs adaptive mock interviews: it asks role-specific questions, " +
		"scores each answer against a rubric, and writes a final report.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./mockprep.yaml or the user config dir)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides database.dsn)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides log.level)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies the
// persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		cfg.Database.Driver = store.DriverSQLite
		cfg.Database.DSN = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured database. An empty sqlite DSN resolves
// to the default data path.
func openStore(cfg *config.Config) (*store.Store, error) {
	dsn := cfg.Database.DSN
	if cfg.Database.Driver == store.DriverSQLite && dsn == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dsn = p
	}
	st, err := store.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// withStore loads config, opens the store for the duration of fn, and
// closes it afterwards.
func withStore(cmd *cobra.Command, fn func(*store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
