// Package cmd implements CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/gb28181registrar/internal/config"
	"firestige.xyz/gb28181registrar/internal/registrar"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the process configuration and policy file",
	Long: `Validate the YAML process configuration and its referenced per-user-agent
XML policy file, without starting the server.

Examples:
  gb28181registrar validate -c config.yml`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidateCommand()
	},
}

func runValidateCommand() {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		os.Exit(1)
	}

	entryCount := 0
	if cfg.Policy.File != "" {
		table, err := registrar.LoadPolicyXML(cfg.Policy.File)
		if err != nil {
			fmt.Fprintf(os.Stderr, "INVALID: policy file %s: %v\n", cfg.Policy.File, err)
			os.Exit(1)
		}
		entryCount = table.Len()
	}

	fmt.Printf("VALID: node=%s domain=%s sip=%s/%s policy_entries=%d\n",
		cfg.Node.Hostname, cfg.Node.Domain, cfg.SIP.Protocol, cfg.SIP.ListenAddr, entryCount)
}
