package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/soddle/internal/api/request"
	"github.com/mcoot/soddle/internal/api/response"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Daily session commands",
	}

	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionShowCmd())

	return cmd
}

func newSessionStartCmd() *cobra.Command {
	var stage int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start or resume a stage of today's game",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := requireKey()
			if err != nil {
				return err
			}

			req := request.StartSessionRequest{PublicKey: key, Stage: stage}
			var result response.Session

			if err := client.Post(cmd.Context(), "/api/v1/sessions", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&stage, "stage", 1, "Stage to start (1 or 2)")

	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := requireKey()
			if err != nil {
				return err
			}

			var result response.Session
			if err := client.Get(cmd.Context(), "/api/v1/players/"+url.PathEscape(key)+"/session", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
