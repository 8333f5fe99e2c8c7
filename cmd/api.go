package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/djay/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request against the API base
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	api, err := r.apiService()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	return r.writePlain("%s\n", resp.Body)
}
