package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/orgstore/cmd/orgctl/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Migrate  commands.MigrateCmd  `cmd:"" help:"Apply database migrations"`
		Import   commands.ImportCmd   `cmd:"" help:"Upsert organisations from a YAML or JSON fixture file"`
		Get      commands.GetCmd      `cmd:"" help:"Read an organisation"`
		Export   commands.ExportCmd   `cmd:"" help:"Write every organisation to a zstd compressed JSON lines file"`
		Validate commands.ValidateCmd `cmd:"" help:"Check a fixture file without storing it"`
		Debug    bool                 `help:"Enable debug mode." env:"ORGSTORE_DEBUG"`
		Tracing  bool                 `help:"Export traces and metrics over OTLP." env:"ORGSTORE_TRACING"`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("orgctl"),
		kong.Description("Manage organisation aggregates."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Tracing: cli.Tracing, Version: version})
	cmd.FatalIfErrorf(err)
}
