package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"deployer/deployerd/server"
	"deployer/internals/env"
	"deployer/sdk"
)

var rootCmd = &cobra.Command{
	Use:   "deployerd",
	Short: "Task deployment daemon",
	Long: `deployerd accepts task submissions over HTTP, stages each one as a
static site, publishes it to GitHub with Pages enabled, and notifies the
submission's evaluation endpoint once the page is reachable.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the deployment server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		envs := env.Get()
		if envs.PROJECT_SECRET == "" {
			return fmt.Errorf("PROJECT_SECRET must be set")
		}
		if envs.GITHUB_USER == "" {
			return fmt.Errorf("GITHUB_USER must be set")
		}

		serverInstance := server.New()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-stop
			serverInstance.Shutdown()
		}()

		if err := serverInstance.Start(); err != nil {
			log.Fatal("[Deployer] Failed to start server: ", err)
		}
		return nil
	},
}

var healthBaseURL string

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether a running server is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := []sdk.Option{}
		if healthBaseURL != "" {
			opts = append(opts, sdk.WithBaseURL(healthBaseURL))
		}
		client := sdk.NewClient(opts...)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		health, err := client.Health(ctx)
		if err != nil {
			return fmt.Errorf("server unreachable: %w", err)
		}
		return json.NewEncoder(os.Stdout).Encode(health)
	},
}

func main() {
	healthCmd.Flags().StringVar(&healthBaseURL, "url", "", "base URL of the server to check")
	rootCmd.AddCommand(serveCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
