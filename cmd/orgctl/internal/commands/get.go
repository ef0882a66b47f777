package commands

import (
	"context"
	"encoding/json"
	"os"
)

type GetCmd struct {
	StoreFlags `embed:""`

	ID         string `help:"Organisation id" required:""`
	MinVersion int    `help:"Wait until the replica reaches this version (0 reads immediately)" default:"0"`
}

func (c *GetCmd) Run(ctx context.Context, globals *Globals) error {
	defer setup(ctx, globals)()

	repo, closeStore, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	org, err := repo.FindByID(ctx, c.ID, c.MinVersion)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(org)
}
