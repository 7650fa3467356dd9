package backups

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/habitual/internal/cli"
)

// ExportCmd writes a JSON snapshot of all data.
type ExportCmd struct {
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	data, err := ctx.Engine.Export()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if c.Output == "" {
		ctx.Printf("%s\n", data)
		return nil
	}
	if err := os.WriteFile(c.Output, data, 0600); err != nil {
		return err
	}
	ctx.Success("Exported to %s", c.Output)
	return nil
}

// ImportCmd replaces all data with a snapshot produced by export.
type ImportCmd struct {
	File string `arg:"" help:"Snapshot file, or - for stdin."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *ImportCmd) Run(ctx *cli.Context) error {
	var (
		data []byte
		err  error
	)
	if c.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return err
	}

	if !c.Yes && c.File != "-" {
		ok, err := ctx.Confirm("Replace all current data with this snapshot?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Import cancelled.")
			return nil
		}
	}

	if err := ctx.Engine.Import(ctx.Context(), data); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	ctx.Success("Imported %d habits", len(ctx.Engine.Habits()))
	return nil
}

// ClearCmd deletes everything and restores the default categories and
// settings.
type ClearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation."`
}

func (c *ClearCmd) Run(ctx *cli.Context) error {
	if !c.Yes {
		ok, err := ctx.Confirm("Delete all habits and history?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Clear cancelled.")
			return nil
		}
	}
	ctx.Engine.ClearAll()
	ctx.Success("All data cleared")
	return nil
}
