package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/orgstore/internal/models"
	"github.com/wolfeidau/orgstore/internal/organisation"
	"github.com/wolfeidau/orgstore/internal/validation"
)

type ValidateCmd struct {
	File string `help:"YAML or JSON fixture file" required:"" type:"existingfile"`
}

func (c *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	defer setup(ctx, globals)()

	orgs, err := loadFixtures(c.File)
	if err != nil {
		return err
	}

	v := validation.New()
	failed := 0
	for i, org := range orgs {
		// Import assigns missing ids, so they are not a validation failure.
		if _, err := assignIDs(org); err != nil {
			return err
		}

		if err := checkFixture(v, org); err != nil {
			failed++
			fmt.Printf("organisation %d (%s): %v\n", i, org.ID, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d organisations are invalid", failed, len(orgs))
	}

	fmt.Printf("%d organisations are valid\n", len(orgs))
	return nil
}

// checkFixture runs field validation, then builds the aggregate an insert
// followed by a status update would produce and checks its approvals.
func checkFixture(v *validation.Validator, org *models.Organisation) error {
	if err := v.ValidateInsert(org); err != nil {
		return err
	}

	upd := org.AsUpdate()
	if err := v.ValidateUpdate(upd); err != nil {
		return err
	}

	at := organisation.SystemClock()

	seeded, err := organisation.Seed(org, at, "")
	if err != nil {
		return err
	}

	merged, err := organisation.ApplyUpdate(seeded, upd, at)
	if err != nil {
		return err
	}

	return organisation.ValidateApprovals(merged)
}
