// Command contactctl submits contact forms to a running Dubhe website API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// endpointEnv overrides the default endpoint
const endpointEnv = "CONTACTCTL_ENDPOINT"

const defaultEndpoint = "http://localhost:8081/api/contact"

var (
	endpoint string
	timeout  int
)

var rootCmd = &cobra.Command{
	Use:           "contactctl",
	Short:         "Drive the Dubhe website contact form from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("endpoint") {
			if env := os.Getenv(endpointEnv); env != "" {
				endpoint = env
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", defaultEndpoint, "contact API endpoint (env "+endpointEnv+")")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 30, "request timeout in seconds")

	rootCmd.AddCommand(submitCmd, subjectsCmd)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
