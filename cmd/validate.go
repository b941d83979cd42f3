package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/pktinfo/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a pktinfo configuration file without decoding anything.

Examples:
  pktinfo validate -f pktinfo.yaml
  pktinfo validate --config pktinfo.yaml`,
	// Skip the root loader; this command reports config errors itself.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := validateConfigFile
		if path == "" {
			path = configFile
		}
		return runValidate(path, cmd.OutOrStdout())
	},
}

var validateConfigFile string

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "file", "f", "",
		"configuration file to validate (defaults to --config)")
}

// runValidate holds the validate business logic, separated for tests.
func runValidate(path string, out io.Writer) error {
	if path == "" {
		return fmt.Errorf("no configuration file given")
	}
	c, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(out, "INVALID: %v\n", err)
		return err
	}

	fmt.Fprintf(out, "VALID: mode=%s ports=%v format=%s log=%s\n",
		c.Filter.Mode, c.Filter.Ports, c.Output.Format, c.Log.Level)
	return nil
}
