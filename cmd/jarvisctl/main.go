// Command jarvisctl is a thin CLI client over jarvisd's HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr, userID string

	root := &cobra.Command{
		Use:   "jarvisctl",
		Short: "Manage runs and sessions on a jarvisd server",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "jarvisd base URL")
	root.PersistentFlags().StringVar(&userID, "user", "cli-user", "X-User-Id to send with every request")

	root.AddCommand(newRunCreateCmd(&addr, &userID))
	root.AddCommand(newRunGetCmd(&addr, &userID))
	root.AddCommand(newRunListCmd(&addr, &userID))
	root.AddCommand(newHealthCmd(&addr))
	return root
}

func newRunCreateCmd(addr, userID *string) *cobra.Command {
	var prompt, agentKind string
	cmd := &cobra.Command{
		Use:   "run-create",
		Short: "Start a new agent run",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]any{"prompt": prompt, "agentKind": agentKind})
			if err != nil {
				return err
			}
			return doRequest(http.MethodPost, *addr+"/v1/runs", *userID, body)
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "run prompt")
	cmd.Flags().StringVar(&agentKind, "agent-kind", "", "ECHO, GEN, BROWSER, or RESEARCH (optional)")
	return cmd
}

func newRunGetCmd(addr, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-get [id]",
		Short: "Fetch a run by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, *addr+"/v1/runs/"+args[0], *userID, nil)
		},
	}
}

func newRunListCmd(addr, userID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run-list",
		Short: "List your runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, *addr+"/v1/runs", *userID, nil)
		},
	}
}

func newHealthCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, *addr+"/health", "", nil)
		},
	}
}

func doRequest(method, url, userID string, body []byte) error {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return nil
}
