package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mferlabs/mfergpt/pkg/mfergpt/config"
)

var secretNames = []string{
	"neynar_api_key",
	"signer_uuid",
	"openai_api_key",
	"freeimage_api_key",
}

// newSecretsCmd creates the `mfergpt secrets` command group for managing
// API keys in the OS keyring.
func newSecretsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage API keys in the OS keyring",
		Long: fmt.Sprintf(`Store, inspect, and remove API keys in the operating
system's keyring instead of keeping them in config files.

Known secrets: %s`, strings.Join(secretNames, ", ")),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <name>",
			Short: "Store a secret (value read from stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := args[0]
				if !knownSecret(name) {
					return fmt.Errorf("unknown secret %q (want one of: %s)", name, strings.Join(secretNames, ", "))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enter value for %s: ", name)
				reader := bufio.NewReader(os.Stdin)
				value, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read value: %w", err)
				}
				value = strings.TrimSpace(value)
				if value == "" {
					return fmt.Errorf("empty value")
				}
				if err := config.StoreKeyring(name, value); err != nil {
					return fmt.Errorf("store secret: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the OS keyring.\n", name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Show which secrets are present in the keyring",
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, name := range secretNames {
					status := "not set"
					if config.GetKeyring(name) != "" {
						status = "set"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", name, status)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <name>",
			Short: "Remove a secret from the keyring",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				name := args[0]
				if !knownSecret(name) {
					return fmt.Errorf("unknown secret %q", name)
				}
				if err := config.DeleteKeyring(name); err != nil {
					return fmt.Errorf("delete secret: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s from the OS keyring.\n", name)
				return nil
			},
		},
	)
	return cmd
}

func knownSecret(name string) bool {
	for _, known := range secretNames {
		if known == name {
			return true
		}
	}
	return false
}
