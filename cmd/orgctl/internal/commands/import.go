package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type ImportCmd struct {
	StoreFlags `embed:""`

	File string `help:"YAML or JSON fixture file" required:"" type:"existingfile"`
}

func (c *ImportCmd) Run(ctx context.Context, globals *Globals) error {
	defer setup(ctx, globals)()

	orgs, err := loadFixtures(c.File)
	if err != nil {
		return err
	}

	repo, closeStore, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var created, updated, unchanged int
	for _, org := range orgs {
		if _, err := assignIDs(org); err != nil {
			return err
		}

		res, err := repo.Upsert(ctx, org)
		if err != nil {
			return fmt.Errorf("failed to import organisation %s: %w", org.ID, err)
		}

		switch {
		case res.Created:
			created++
		case res.HasChanges:
			updated++
		default:
			unchanged++
		}

		log.Debug().
			Str("org_id", res.Organisation.ID).
			Int("version", res.Organisation.Version).
			Bool("created", res.Created).
			Bool("changed", res.HasChanges).
			Msg("Imported organisation")
	}

	fmt.Printf("created %d, updated %d, unchanged %d\n", created, updated, unchanged)
	return nil
}
