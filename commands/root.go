package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"food-marketplace-api/app"
	"food-marketplace-api/config"
	"food-marketplace-api/logger"
)

var (
	// Global flags
	jsonOutput bool

	cfg *config.Config
	log *logger.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "food-marketplace",
	Short: "Food marketplace API server and maintenance tools",
	Long: `Food marketplace backend: restaurants and menus, carts, orders with
tracking, and role-based accounts.

Configuration comes from environment variables or a .env file in the
working directory. Run "food-marketplace serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
		gin.SetMode(cfg.HTTP.GinMode)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// openApp wires the application for one command run.
func openApp() (*app.App, error) {
	a, err := app.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
