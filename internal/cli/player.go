package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/soddle/internal/api/response"
)

var errNoKey = errors.New("no player key: pass --key or run 'soddle player use <key>'")

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player commands",
	}

	cmd.AddCommand(newPlayerUseCmd())
	cmd.AddCommand(newPlayerShowCmd())
	cmd.AddCommand(newPlayerForgetCmd())

	return cmd
}

func newPlayerUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <public-key>",
		Short: "Remember a player key for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.SaveKey(args[0]); err != nil {
				return fmt.Errorf("failed to save key: %w", err)
			}

			output(cmd).PrintMessage("Playing as " + args[0])
			return nil
		},
	}
}

func newPlayerForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Forget the remembered player key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ForgetKey(); err != nil {
				return fmt.Errorf("failed to forget key: %w", err)
			}

			output(cmd).PrintMessage("Player key forgotten")
			return nil
		},
	}
}

func newPlayerShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [public-key]",
		Short: "Show a player's record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := cfg.PublicKey
			if len(args) == 1 {
				key = args[0]
			}
			if key == "" {
				return errNoKey
			}

			var result response.Player
			if err := client.Get(cmd.Context(), "/api/v1/players/"+url.PathEscape(key), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
