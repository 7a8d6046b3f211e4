// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gb28181registrar",
	Short: "GB28181 REGISTER registrar and RTP frame reassembler",
	Long: `gb28181registrar answers GB28181 REGISTER requests for a video-surveillance
signalling domain: it validates and authenticates incoming registrations,
maintains device and binding caches, and fans out post-registration hooks.
It also reassembles RTP packets sharing a media timestamp into complete,
sequence-ordered frames.

Registration requests are validated synchronously at intake, then queued
to a single worker goroutine that runs the registration state machine —
no per-account locking is used anywhere; serial processing by the one
worker is the sole consistency guarantee.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/gb28181registrar/config.yml",
		"config file path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
