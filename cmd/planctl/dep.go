package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	depType string
	lagDays int
)

// DependencyView matches the dependency payload served by the API.
type DependencyView struct {
	ID            string    `json:"id"`
	PredecessorID string    `json:"predecessor_id"`
	SuccessorID   string    `json:"successor_id"`
	Type          string    `json:"type"`
	LagDays       int       `json:"lag_days"`
	CreatedAt     time.Time `json:"created_at"`
}

// depCmd groups dependency operations
var depCmd = &cobra.Command{
	Use:   "dep",
	Short: "Manage task dependencies",
}

// depAddCmd creates a dependency edge
var depAddCmd = &cobra.Command{
	Use:   "add <predecessor-id> <successor-id>",
	Short: "Link two tasks with a dependency",
	Long: `Create a dependency edge between two tasks of a project. The server
rejects self-references and anything that would close a circular chain.

Examples:
  # Plain finish-to-start link
  planctl dep add -p <project-id> <pred-id> <succ-id>

  # Two day lag
  planctl dep add -p <project-id> --lag 2 <pred-id> <succ-id>`,
	Args: cobra.ExactArgs(2),
	RunE: runDepAdd,
}

// depRemoveCmd deletes a dependency edge
var depRemoveCmd = &cobra.Command{
	Use:   "rm <dependency-id>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(1),
	RunE:  runDepRemove,
}

func init() {
	depAddCmd.Flags().StringVar(&depType, "type", "FS", "dependency type (FS, SS, FF, SF)")
	depAddCmd.Flags().IntVar(&lagDays, "lag", 0, "lag in days")
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRemoveCmd)
}

func runDepAdd(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}

	body := map[string]interface{}{
		"predecessor_id": args[0],
		"successor_id":   args[1],
		"type":           depType,
		"lag_days":       lagDays,
	}
	var dep DependencyView
	if err := doJSON("POST", "/api/v1/task-dependencies", body, &dep, http.StatusCreated); err != nil {
		return err
	}

	fmt.Printf("Created dependency %s (%s, lag %dd)\n", dep.ID, dep.Type, dep.LagDays)
	return nil
}

func runDepRemove(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v1/task-dependencies/%s", args[0])
	if err := doJSON("DELETE", path, nil, nil, http.StatusNoContent); err != nil {
		return err
	}

	fmt.Printf("Removed dependency %s\n", args[0])
	return nil
}
