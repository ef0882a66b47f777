package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgstore/internal/models"
)

type ExportCmd struct {
	StoreFlags `embed:""`

	Out string `help:"Output file" default:"organisations.jsonl.zst"`
}

func (c *ExportCmd) Run(ctx context.Context, globals *Globals) error {
	defer setup(ctx, globals)()

	repo, closeStore, err := c.openRepository(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	orgs, err := repo.FindAll(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(c.Out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Out, err)
	}
	defer f.Close()

	if err := writeSnapshot(f, orgs); err != nil {
		return err
	}

	log.Info().Int("count", len(orgs)).Str("file", c.Out).Msg("Exported organisations")
	return f.Close()
}

// writeSnapshot writes one JSON document per line through a zstd encoder.
func writeSnapshot(w io.Writer, orgs []*models.Organisation) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	lines := json.NewEncoder(enc)
	for _, org := range orgs {
		if err := lines.Encode(org); err != nil {
			enc.Close()
			return fmt.Errorf("failed to write organisation %s: %w", org.ID, err)
		}
	}

	return enc.Close()
}

// readSnapshot reverses writeSnapshot.
func readSnapshot(r io.Reader) ([]*models.Organisation, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	var orgs []*models.Organisation
	lines := json.NewDecoder(dec)
	for lines.More() {
		var org models.Organisation
		if err := lines.Decode(&org); err != nil {
			return nil, fmt.Errorf("failed to read organisation %d: %w", len(orgs), err)
		}
		orgs = append(orgs, &org)
	}

	return orgs, nil
}
