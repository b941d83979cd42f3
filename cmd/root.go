// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"

	"firestige.xyz/pktinfo/internal/config"
	"firestige.xyz/pktinfo/internal/log"
)

var (
	// Global flags
	configFile string

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pktinfo",
	Short: "pktinfo - extract TCP/IPv4 endpoints from capture files",
	Long: `pktinfo reads pcap and pcapng capture files, decodes Ethernet/IPv4/TCP
headers and lists the source and destination address and port of every
TCP segment, optionally filtered by port.

Filter modes:
  - none:      every TCP/IPv4 record
  - native:    in-process port filter
  - predicate: port filter called through the predicate interface
  - bpf:       classic BPF program over the port pair`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults and PKTINFO_* environment when empty)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(validateCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := log.Init(&c.Log); err != nil {
		return err
	}
	cfg = c
	return nil
}
