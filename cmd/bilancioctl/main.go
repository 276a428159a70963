// Command bilancioctl administers a bilancio installation: migrations,
// users, global categories and reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bilancio/internal/backend"
	"bilancio/internal/cli"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/storage"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:               "bilancioctl",
		Short:             "Administer a bilancio installation",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./bilancio.yaml or $HOME/.config/bilancio/bilancio.yaml)")
	flags.String("backend", "", "data backend (memory, sqlite, postgres)")
	flags.String("sqlite-path", "", "SQLite database path")
	flags.String("postgres-dsn", "", "PostgreSQL connection string")
	flags.String("timezone", "", "time zone used to resolve the current month")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("data_backend", flags.Lookup("backend"))
	_ = viper.BindPFlag("sqlite_db_path", flags.Lookup("sqlite-path"))
	_ = viper.BindPFlag("postgres_dsn", flags.Lookup("postgres-dsn"))
	_ = viper.BindPFlag("timezone", flags.Lookup("timezone"))
	_ = viper.BindPFlag("log_level", flags.Lookup("log-level"))

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(categoryCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
}

func main() {
	cli.LoadEnvFile()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/bilancio")
		}
		viper.SetConfigName("bilancio")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BILANCIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logCfg := applog.DefaultConfig()
	logCfg.Level = applog.ParseLevel(viper.GetString("log_level"))
	logCfg.Component = applog.ComponentCLI
	logCfg.Output = os.Stderr
	applog.SetDefault(applog.New(logCfg))
	return nil
}

// viperOverrides maps viper keys onto the config fields they replace.
func viperOverrides(cfg *config.Config) map[string]*string {
	return map[string]*string{
		"data_backend":                &cfg.DataBackend,
		"sqlite_db_path":              &cfg.SQLiteDBPath,
		"postgres_dsn":                &cfg.PostgresDSN,
		"timezone":                    &cfg.Timezone,
		"google_spreadsheet_id":       &cfg.GoogleSpreadsheetID,
		"google_service_account_json": &cfg.GoogleServiceAccountJSON,
		"google_service_account_file": &cfg.GoogleServiceAccountFile,
	}
}

// appConfig starts from the server's environment and applies any value set
// by flag, BILANCIO_* variable or config file.
func appConfig(v *viper.Viper) *config.Config {
	cfg := config.Load()
	for key, field := range viperOverrides(cfg) {
		if s := strings.TrimSpace(v.GetString(key)); s != "" {
			*field = s
		}
	}
	return cfg
}

func openStore(ctx context.Context) (storage.Store, *config.Config, error) {
	cfg := appConfig(viper.GetViper())
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := backend.Open(ctx, bcfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}
