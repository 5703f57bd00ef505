package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "esp-collector",
	Short: "esp-collector - ESP sensor sampling service",
	Long: `esp-collector polls an ESP temperature and humidity sensor, keeps a bounded
history of readings and serves the current state and aggregated history over HTTP.`,
	SilenceUsage: true,
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg := LoadConfig()
	ctx := context.WithValue(context.Background(), configKey{}, cfg)
	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
