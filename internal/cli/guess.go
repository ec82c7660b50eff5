package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/soddle/internal/api/request"
	"github.com/mcoot/soddle/internal/api/response"
)

func newGuessCmd() *cobra.Command {
	var stage int

	cmd := &cobra.Command{
		Use:   "guess <profile-id>",
		Short: "Guess a catalog profile in the active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := requireKey()
			if err != nil {
				return err
			}

			req := request.GuessRequest{Stage: stage, ProfileID: args[0]}
			var result response.Session

			if err := client.Post(cmd.Context(), "/api/v1/players/"+url.PathEscape(key)+"/guesses", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&stage, "stage", 1, "Stage the guess is for (1 or 2)")

	return cmd
}
