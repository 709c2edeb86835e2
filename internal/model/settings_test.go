package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := DefaultSettings(now)

	assert.Len(t, s.Categories, 2)
	assert.Equal(t, "Personal", s.Categories[0].Name)
	assert.Equal(t, "Work", s.Categories[1].Name)
	for _, c := range s.Categories {
		assert.True(t, s.CategoryFilter[c.ID])
	}
	assert.Equal(t, "system", s.Theme)
	assert.True(t, s.AutoMoveTodos)
}

func TestMergeSettingsLeavesAbsentFields(t *testing.T) {
	base := DefaultSettings(time.Now())

	theme := "dark"
	merged := MergeSettings(base, SettingsPatch{Theme: &theme})

	assert.Equal(t, "dark", merged.Theme)
	assert.Equal(t, base.Language, merged.Language)
	assert.Equal(t, base.Categories, merged.Categories)
	assert.Equal(t, base.Notifications, merged.Notifications)
}

func TestMergeSettingsNestedPartial(t *testing.T) {
	base := DefaultSettings(time.Now())

	weekly := true
	merged := MergeSettings(base, SettingsPatch{
		Notifications: &NotificationsPatch{WeeklyReport: &weekly},
	})

	assert.True(t, merged.Notifications.WeeklyReport)
	// Siblings of the patched member keep their values.
	assert.Equal(t, base.Notifications.Enabled, merged.Notifications.Enabled)
	assert.Equal(t, base.Notifications.DailyReminder, merged.Notifications.DailyReminder)
}

func TestMergeSettingsReplacesSaturationLevels(t *testing.T) {
	base := DefaultSettings(time.Now())

	levels := []SaturationLevel{{Days: 2, Opacity: 0.5}}
	merged := MergeSettings(base, SettingsPatch{
		SaturationAdjustment: &SaturationAdjustmentPatch{Levels: &levels},
	})

	assert.Equal(t, levels, merged.SaturationAdjustment.Levels)
	assert.Equal(t, base.SaturationAdjustment.Enabled, merged.SaturationAdjustment.Enabled)
}

func TestFindCategory(t *testing.T) {
	us := &UserSettings{Settings: DefaultSettings(time.Now())}

	found := us.FindCategory(us.Settings.Categories[1].ID)
	assert.NotNil(t, found)
	assert.Equal(t, "Work", found.Name)

	assert.Nil(t, us.FindCategory("missing"))
}
