package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/store"
)

// statusReport is the status command's JSON output shape.
type statusReport struct {
	ActiveVersions []store.IndexVersion `json:"active_versions"`
	RunningJobs    []store.Job          `json:"running_jobs"`
	FailedJobs     []store.Job          `json:"failed_jobs"`
	PendingByType  map[string]int       `json:"pending_by_type"`
	DocCounts      map[string]int       `json:"doc_counts_by_subreddit"`
	ShardCount     int                  `json:"shard_count"`
}

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index versions, queue depth, and recent job failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func collectStatus(st *store.DB) (statusReport, error) {
	var report statusReport

	active, err := st.GetAllActive()
	if err != nil {
		return report, fmt.Errorf("list active versions: %w", err)
	}
	report.ActiveVersions = active

	running, err := st.GetRunning()
	if err != nil {
		return report, fmt.Errorf("list running jobs: %w", err)
	}
	report.RunningJobs = running

	failed, err := st.GetFailed(20)
	if err != nil {
		return report, fmt.Errorf("list failed jobs: %w", err)
	}
	report.FailedJobs = failed

	report.PendingByType = make(map[string]int)
	for _, jobType := range []string{"crawl", "preprocess", "build_index", "rebuild"} {
		count, err := st.PendingCount(jobType)
		if err != nil {
			return report, fmt.Errorf("count pending %s jobs: %w", jobType, err)
		}
		report.PendingByType[jobType] = count
	}

	docCounts, err := st.DocCountsBySubreddit()
	if err != nil {
		return report, fmt.Errorf("doc counts: %w", err)
	}
	report.DocCounts = docCounts

	assignments, err := st.AllShardAssignments()
	if err != nil {
		return report, fmt.Errorf("shard assignments: %w", err)
	}
	shards := make(map[string]struct{})
	for _, shardID := range assignments {
		shards[shardID] = struct{}{}
	}
	report.ShardCount = len(shards)

	return report, nil
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	_, st, err := openStoreAndSettings()
	if err != nil {
		return err
	}
	defer st.Close()

	report, err := collectStatus(st)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "shards: %d\n", report.ShardCount)
	fmt.Fprintln(out, "active versions:")
	for _, v := range report.ActiveVersions {
		fmt.Fprintf(out, "  %-12s %-16s v%d  %d docs\n", v.IndexType, v.ShardID, v.Version, v.DocCount)
	}
	fmt.Fprintln(out, "pending jobs:")
	for _, jobType := range []string{"crawl", "preprocess", "build_index", "rebuild"} {
		fmt.Fprintf(out, "  %-12s %d\n", jobType, report.PendingByType[jobType])
	}
	fmt.Fprintf(out, "running jobs: %d\n", len(report.RunningJobs))
	fmt.Fprintf(out, "recent failures: %d\n", len(report.FailedJobs))
	for _, j := range report.FailedJobs {
		errMsg := ""
		if j.Error != nil {
			errMsg = *j.Error
		}
		fmt.Fprintf(out, "  #%d %-12s %s\n", j.ID, j.JobType, errMsg)
	}
	return nil
}
