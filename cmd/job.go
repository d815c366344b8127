package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dockhand/dockhand/internal/apiclient"
	"github.com/dockhand/dockhand/internal/jobs"
)

var (
	jobServer string
	jobFollow bool
)

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show a job on a running dockhand server",
	Long: `Show a job by id. With --follow the command polls every second, the same
way the dashboard does, until the job reaches done or failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runJob,
}

func init() {
	jobCmd.Flags().StringVar(&jobServer, "server", "http://localhost:5000", "dockhand server base URL")
	jobCmd.Flags().BoolVarP(&jobFollow, "follow", "f", false, "poll until the job reaches a terminal state")
	rootCmd.AddCommand(jobCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	client := apiclient.New(jobServer)
	ctx := cmd.Context()

	for {
		var resp struct {
			OK  bool      `json:"ok"`
			Job *jobs.Job `json:"job"`
		}
		if err := client.GetJSON(ctx, "/api/job/"+args[0], &resp); err != nil {
			if apiclient.IsNotFound(err) {
				return fmt.Errorf("job %s not found", args[0])
			}
			return err
		}
		if resp.Job == nil {
			return fmt.Errorf("malformed response for job %s", args[0])
		}

		fmt.Printf("%s  %s %s  %s\n", resp.Job.ID, resp.Job.Action, resp.Job.Name, resp.Job.Status)
		if !jobFollow || resp.Job.Status.Terminal() {
			if resp.Job.Result != "" {
				fmt.Println(resp.Job.Result)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
