package cli

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/soddle/internal/api/response"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		window string
		stage  int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show a stage leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("window", window)
			q.Set("stage", strconv.Itoa(stage))

			var result response.Leaderboard
			if err := client.Get(cmd.Context(), "/api/v1/leaderboard?"+q.Encode(), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&window, "window", "daily", "Time window: daily, weekly, monthly, yesterday, alltime")
	cmd.Flags().IntVar(&stage, "stage", 1, "Stage (1 or 2)")

	return cmd
}
