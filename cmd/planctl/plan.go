package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// TaskView matches the task payload served by the tasks API.
type TaskView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	PlannedStart   *time.Time `json:"planned_start"`
	PlannedEnd     *time.Time `json:"planned_end"`
	IsCriticalPath bool       `json:"is_critical_path"`
	FloatDays      *int       `json:"float_days"`
	DurationDays   *int       `json:"duration_days"`
}

// CriticalPathResult matches the critical-path response.
type CriticalPathResult struct {
	CriticalPath  []string `json:"critical_path"`
	TotalDuration int      `json:"total_duration"`
}

// CountResponse matches internal/http/types.go CountResponse
type CountResponse struct {
	Count int `json:"count"`
}

// tasksCmd lists the tasks of a project
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks of a project",
	Long: `List the tasks of a project with their schedule.

Examples:
  # List tasks
  planctl tasks -p <project-id>`,
	RunE: runTasks,
}

func runTasks(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}

	var views []TaskView
	if err := doJSON("GET", "/api/v1/tasks", nil, &views, http.StatusOK); err != nil {
		return err
	}

	for _, v := range views {
		marker := " "
		if v.IsCriticalPath {
			marker = "*"
		}
		fmt.Printf("%s %-36s  %-12s  %s\n", marker, v.ID, v.Status, v.Name)
	}
	fmt.Fprintf(os.Stderr, "\n%d task(s), * = critical path\n", len(views))
	return nil
}

// criticalPathCmd recalculates the critical path
var criticalPathCmd = &cobra.Command{
	Use:   "critical-path",
	Short: "Recalculate the critical path of a project",
	Long: `Run the critical path calculation for a project and print the result.

Examples:
  # Recalculate
  planctl critical-path -p <project-id>`,
	RunE: runCriticalPath,
}

func runCriticalPath(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}

	var result CriticalPathResult
	if err := doJSON("POST", "/api/v1/tasks/critical-path", nil, &result, http.StatusOK); err != nil {
		return err
	}

	fmt.Printf("Total Duration: %d day(s)\n", result.TotalDuration)
	fmt.Printf("Critical Path:  %d task(s)\n", len(result.CriticalPath))
	for _, id := range result.CriticalPath {
		fmt.Printf("  %s\n", id)
	}
	return nil
}

// exportCmd dumps the project plan as JSON
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a project plan as JSON",
	Long: `Export the active tasks of a project as a JSON document on stdout.

Examples:
  # Export to a file
  planctl export -p <project-id> > plan.json`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}

	var raw json.RawMessage
	if err := doJSON("GET", "/api/v1/tasks/export", nil, &raw, http.StatusOK); err != nil {
		return err
	}

	var pretty map[string]interface{}
	if err := json.Unmarshal(raw, &pretty); err != nil {
		return fmt.Errorf("failed to decode export: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// baselineCmd snapshots the current schedule
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Save the current schedule as the baseline",
	Long: `Snapshot the planned dates of every scheduled task in a project
into its baseline fields.

Examples:
  # Save a baseline for the whole project
  planctl baseline -p <project-id>`,
	RunE: runBaseline,
}

func runBaseline(cmd *cobra.Command, args []string) error {
	if err := requireProject(); err != nil {
		return err
	}

	var resp CountResponse
	if err := doJSON("POST", "/api/v1/tasks/baselines", nil, &resp, http.StatusOK); err != nil {
		return err
	}

	fmt.Printf("Baselined %d task(s)\n", resp.Count)
	return nil
}
