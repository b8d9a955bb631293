// Package main implements the planctl CLI for manual operations against the pland HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the pland HTTP server
	serverURL string
	// projectID scopes project-level commands
	projectID string
	// actor names the acting user for audit entries
	actor string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "CLI for pland HTTP server operations",
	Long: `planctl is a command-line interface for interacting with the pland HTTP server.
It provides commands for inspecting project plans, managing dependencies, and
recalculating the critical path.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9290", "pland server URL")
	rootCmd.PersistentFlags().StringVarP(&projectID, "project", "p", "", "project ID (sent as X-Project-ID)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "acting user for audit entries")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(criticalPathCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(depCmd)
}

// HealthResponse matches internal/http/server.go HealthResponse
type HealthResponse struct {
	Status string `json:"status"`
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check pland server health",
	Long: `Check the health status of the pland HTTP server.

Examples:
  # Check health
  planctl health

  # Check health on a different server
  planctl health --server http://localhost:8080`,
	RunE: runHealth,
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to %s: %v\n", url, err)
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	var healthResp HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", healthResp.Status)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}

// requireProject fails fast when a project-scoped command runs without -p.
func requireProject() error {
	if projectID == "" {
		return fmt.Errorf("a project is required: pass --project (or -p)")
	}
	return nil
}

// doJSON sends a request with the scoping headers set and decodes the JSON
// response into out (which may be nil for no-content responses).
func doJSON(method, path string, body, out interface{}, wantStatus int) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	url := serverURL + path
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if projectID != "" {
		req.Header.Set("X-Project-ID", projectID)
	}
	if actor != "" {
		req.Header.Set("X-Actor", actor)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, wantStatus); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// checkStatus reports an error with the response body when the status is
// not the expected one.
func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}
