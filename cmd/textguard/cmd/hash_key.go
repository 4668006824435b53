package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/textguard/textguard/internal/domain/adminauth"
)

var hashKeyArgon2id bool

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [admin-key]",
	Short: "Generate a hash for an admin API key",
	Long: `Generate a hash of an admin API key for use in config.

By default this prints a SHA-256 hex digest, suitable for the
admin.key_hash field when the key itself is already a high-entropy
secret. Pass --argon2id to instead produce a salted Argon2id PHC
string, recommended when the key may be lower-entropy or operator-chosen.

Example:
  textguard hash-key "my-admin-key"
  textguard hash-key --argon2id "my-admin-key"

Security note: the key will appear in shell history. Consider clearing
history after use, or pass it via an environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if hashKeyArgon2id {
			hash, err := adminauth.HashKeyArgon2id(key)
			if err != nil {
				return fmt.Errorf("hash key: %w", err)
			}
			fmt.Println(hash)
			return nil
		}
		fmt.Println(adminauth.HashKey(key))
		return nil
	},
}

func init() {
	hashKeyCmd.Flags().BoolVar(&hashKeyArgon2id, "argon2id", false, "produce a salted Argon2id hash instead of SHA-256")
	rootCmd.AddCommand(hashKeyCmd)
}
