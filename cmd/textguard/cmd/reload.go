package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var reloadServerAddr string
var reloadAdminKey string

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Force a running server to recompile its rule document",
	Long: `Reload sends POST /admin/reload to a running textguard server,
forcing it to re-read and recompile its rule document regardless of the
file's modification time. Useful after editing the rule document out of
band of the hot-reload poll interval.`,
	RunE: runReload,
}

func init() {
	reloadCmd.Flags().StringVar(&reloadServerAddr, "addr", "http://localhost:8080", "base URL of the running server")
	reloadCmd.Flags().StringVar(&reloadAdminKey, "admin-key", "", "admin API key, if the server requires one")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequest(http.MethodPost, reloadServerAddr+"/admin/reload", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if reloadAdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+reloadAdminKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("reload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reload failed: %s: %s", resp.Status, string(body))
	}

	fmt.Println(string(body))
	return nil
}
