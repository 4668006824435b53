package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var rulesServerAddr string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules currently loaded by a running server",
	Long:  `Rules fetches GET /rules from a running textguard server and prints a summary of every loaded rule.`,
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&rulesServerAddr, "addr", "http://localhost:8080", "base URL of the running server")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(rulesServerAddr + "/rules")
	if err != nil {
		return fmt.Errorf("rules request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rules request failed: %s: %s", resp.Status, string(body))
	}

	var summaries []map[string]interface{}
	if err := json.Unmarshal(body, &summaries); err != nil {
		fmt.Println(string(body))
		return nil
	}

	for _, s := range summaries {
		pretty, _ := json.MarshalIndent(s, "", "  ")
		fmt.Println(string(pretty))
	}
	fmt.Printf("%d rule(s) loaded\n", len(summaries))
	return nil
}
