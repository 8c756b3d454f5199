package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fintrack/internal/log"
)

const defaultAPIURL = "http://localhost:8081"

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "finctl",
		Short: "Track expenses, incomes and credit card bills from the terminal",
		Long: `finctl is the command line client of the fintrack API.

Log in once with 'finctl login'; the session token is kept in the config file
(default $HOME/.config/finctl/config.yaml) until you log out.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/finctl/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", defaultAPIURL, "fintrack API base URL")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(registerCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(expensesCmd())
	rootCmd.AddCommand(incomesCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(cardsCmd())
	rootCmd.AddCommand(purchasesCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(materializeCmd())
	rootCmd.AddCommand(portfolioCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("FINCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentCLI
	cfg.Output = os.Stderr
	level, err := log.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	cfg.Level = level
	log.SetDefault(log.New(cfg))
	return nil
}

// configPath is --config when given, otherwise $HOME/.config/finctl/config.yaml.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "finctl", "config.yaml"), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the finctl version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "finctl %s\n", version)
		},
	}
}
