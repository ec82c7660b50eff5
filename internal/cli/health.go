package cli

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/mcoot/soddle/internal/api/response"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  "Check server health. A degraded server is up but has no profile catalog, so no game can start.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Health

			// A degraded server answers 503 with a health body
			err := client.Get(cmd.Context(), "/api/v1/health", &result)
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.Status == http.StatusServiceUnavailable {
				err = json.Unmarshal(httpErr.Body, &result)
			}
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			if result.Status != response.HealthOK {
				return errors.New("server is " + result.Status)
			}
			return nil
		},
	}
}
