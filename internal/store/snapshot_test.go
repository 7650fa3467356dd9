package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/habitual/internal/models"
)

func populate(t *testing.T, s *Store) {
	t.Helper()
	a := s.AddHabit(models.NewHabit{
		Name:         "Run",
		Color:        "#ff0000",
		Icon:         models.StringPtr("🏃"),
		Category:     models.StringPtr("1"),
		Frequency:    models.FrequencyWeekly,
		Goal:         models.IntPtr(3),
		Tags:         []string{"health"},
		ReminderTime: models.StringPtr("07:30"),
		CustomFrequency: &models.CustomFrequency{
			SpecificDays: []int{1, 3, 5},
		},
	})
	b := s.AddHabit(models.NewHabit{Name: "Read", Color: "#00ff00"})
	s.ToggleEntry(a.ID, "2024-03-14")
	s.ToggleEntry(a.ID, "2024-03-15")
	s.ToggleEntry(b.ID, "2024-03-15")
	s.ToggleEntry(b.ID, "2024-03-15")
	s.AddCategory(models.NewCategory{Name: "Work", Color: "#abcdef"})
	s.UpdateSettings(models.SettingsPatch{DarkMode: boolPtr(true), DefaultView: models.StringPtr("list")})
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := newTestStore(t)
	populate(t, src)

	data, err := src.ExportSnapshot()
	require.NoError(t, err)

	dst, _ := newTestStore(t)
	require.True(t, dst.ImportSnapshot(data))

	assert.Equal(t, src.GetHabits(), dst.GetHabits())
	assert.Equal(t, src.AllEntries(), dst.AllEntries())
	assert.Equal(t, src.GetCategories(), dst.GetCategories())
	assert.Equal(t, src.GetSettings(), dst.GetSettings())

	again, err := dst.ExportSnapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestExportImportKeepsEmptyTags(t *testing.T) {
	src, _ := newTestStore(t)
	h := src.AddHabit(models.NewHabit{Name: "Stretch", Color: "#123456", Tags: []string{}})
	require.NotNil(t, src.GetHabits()[0].Tags)

	data, err := src.ExportSnapshot()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags": []`)

	dst, _ := newTestStore(t)
	require.True(t, dst.ImportSnapshot(data))

	got := dst.GetHabits()
	require.Len(t, got, 1)
	assert.Equal(t, h.ID, got[0].ID)
	assert.NotNil(t, got[0].Tags)
	assert.Empty(t, got[0].Tags)
}

func TestExportDocumentShape(t *testing.T) {
	s, _ := newTestStore(t)
	populate(t, s)

	data, err := s.ExportSnapshot()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"habits", "entries", "categories", "settings", "exportDate"} {
		assert.Contains(t, doc, key)
	}
	assert.Equal(t, `"2024-03-15T12:00:00Z"`, string(doc["exportDate"]))
}

func TestImportPartialLeavesOtherCollections(t *testing.T) {
	s, _ := newTestStore(t)
	populate(t, s)
	habitsBefore := s.GetHabits()
	entriesBefore := s.AllEntries()

	ok := s.ImportSnapshot([]byte(`{"settings":{"chartColor":"#123456"}}`))
	require.True(t, ok)

	assert.Equal(t, habitsBefore, s.GetHabits())
	assert.Equal(t, entriesBefore, s.AllEntries())
	settings := s.GetSettings()
	assert.Equal(t, "#123456", settings.ChartColor)
	assert.False(t, settings.DarkMode)
	assert.Equal(t, "grid", settings.DefaultView)
}

func TestImportInvalidLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `garbage`},
		{"array", `[1,2,3]`},
		{"string", `"hello"`},
		{"habits not array", `{"habits":{"id":"x"}}`},
		{"habit without id", `{"habits":[{"name":"x"}]}`},
		{"duplicate habit ids", `{"habits":[{"id":"a"},{"id":"a"}]}`},
		{"bad entry date", `{"habits":[],"entries":[{"habitId":"a","date":"15/03/2024","completed":true}]}`},
		{"entry without habit", `{"entries":[{"date":"2024-03-15","completed":true}]}`},
		{"bad reminder", `{"habits":[{"id":"a","reminderTime":"soon"}]}`},
		{"settings wrong type", `{"settings":[]}`},
		{"valid habits, broken categories", `{"habits":[{"id":"new"}],"categories":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			populate(t, s)
			before := s.Snapshot()

			assert.False(t, s.ImportSnapshot([]byte(tt.data)))
			assert.ErrorIs(t, s.ImportSnapshotErr([]byte(tt.data)), ErrInvalidSnapshot)

			after := s.Snapshot()
			assert.Equal(t, before, after)
		})
	}
}

func TestImportNormalizesLegacyFields(t *testing.T) {
	s, _ := newTestStore(t)
	data := `{
		"habits": [{"id":"h1","name":"Old","color":"#ffffff","order":0,"reminderTime":"08:15"}],
		"entries": [{"habitId":"h1","date":"2024-03-15","completed":true}],
		"categories": null
	}`

	require.True(t, s.ImportSnapshot([]byte(data)))
	h, ok := s.GetHabit("h1")
	require.True(t, ok)
	assert.Equal(t, models.FrequencyDaily, h.Frequency)
	assert.Equal(t, "08:15", *h.ReminderTime)
	assert.Equal(t, models.DefaultCategories(), s.GetCategories())
}
