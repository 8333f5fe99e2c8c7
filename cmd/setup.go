package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/djay/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
//
// An existing file is left untouched.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("Wrote %s\n", path)
	r.writePlain("Set api.base_url (or %s) before running djay.\n", shared.APIBaseEnv)
	return nil
}
