package cli

import (
	"fmt"

	"github.com/julianstephens/habitual/internal/models"
)

type CategoryCmd struct {
	List   CategoryListCmd   `cmd:"" help:"List categories."`
	Add    CategoryAddCmd    `cmd:"" help:"Add a category."`
	Edit   CategoryEditCmd   `cmd:"" help:"Edit a category."`
	Delete CategoryDeleteCmd `cmd:"" help:"Delete a category."`
}

type CategoryListCmd struct{}

func (c *CategoryListCmd) Run(ctx *Context) error {
	cats := ctx.Engine.Categories()
	if len(cats) == 0 {
		ctx.Println("No categories found.")
		return nil
	}
	ctx.Header("Categories")
	for _, cat := range cats {
		icon := " "
		if cat.Icon != nil {
			icon = *cat.Icon
		}
		ctx.Printf("  %s %-20s %s %s\n", icon, cat.Name, cat.Color, ctx.Faint(cat.ID))
	}
	return nil
}

type CategoryAddCmd struct {
	Name  string `arg:"" help:"Category name."`
	Color string `help:"Hex color." default:"#40c463"`
	Icon  string `help:"Icon (usually an emoji)."`
}

func (c *CategoryAddCmd) Run(ctx *Context) error {
	in := models.NewCategory{Name: c.Name, Color: c.Color}
	if c.Icon != "" {
		in.Icon = models.StringPtr(c.Icon)
	}
	cat, err := ctx.Engine.AddCategory(in)
	if err != nil {
		return err
	}
	ctx.Success("Added category %q (%s)", cat.Name, cat.ID)
	return nil
}

type CategoryEditCmd struct {
	Category string  `arg:"" help:"Category id or name."`
	Name     *string `help:"New name."`
	Color    *string `help:"New hex color."`
	Icon     *string `help:"New icon."`
}

func (c *CategoryEditCmd) Run(ctx *Context) error {
	cat, err := findCategory(ctx.Engine, c.Category)
	if err != nil {
		return err
	}
	if c.Name != nil && *c.Name == "" {
		return fmt.Errorf("category name cannot be empty")
	}
	if err := ctx.Engine.UpdateCategory(cat.ID, models.CategoryPatch{Name: c.Name, Color: c.Color, Icon: c.Icon}); err != nil {
		return err
	}
	ctx.Success("Updated category %q", cat.Name)
	return nil
}

type CategoryDeleteCmd struct {
	Category string `arg:"" help:"Category id or name."`
}

func (c *CategoryDeleteCmd) Run(ctx *Context) error {
	cat, err := findCategory(ctx.Engine, c.Category)
	if err != nil {
		return err
	}
	if err := ctx.Engine.DeleteCategory(cat.ID); err != nil {
		return err
	}
	ctx.Success("Deleted category %q", cat.Name)
	return nil
}
