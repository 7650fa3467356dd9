package models

type Category struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Icon  *string `json:"icon,omitempty"`
}

type NewCategory struct {
	Name  string
	Color string
	Icon  *string
}

type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Icon != nil {
		c.Icon = cloneString(p.Icon)
	}
}

func (c Category) Clone() Category {
	out := c
	out.Icon = cloneString(c.Icon)
	return out
}

// DefaultCategories is the set seeded on first run.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Health & Fitness", Color: "#26d0ce", Icon: StringPtr("💪")},
		{ID: "2", Name: "Learning", Color: "#216e39", Icon: StringPtr("📚")},
		{ID: "3", Name: "Productivity", Color: "#f9ca24", Icon: StringPtr("⚡")},
		{ID: "4", Name: "Mindfulness", Color: "#6c5ce7", Icon: StringPtr("🧘")},
		{ID: "5", Name: "Creativity", Color: "#fd79a8", Icon: StringPtr("🎨")},
		{ID: "6", Name: "Social", Color: "#45b7d1", Icon: StringPtr("👥")},
	}
}
