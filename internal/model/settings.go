package model

import (
	"time"

	"github.com/google/uuid"
)

// Category is a user-defined todo category.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	Order     int       `json:"order"`
}

// Notifications groups the notification toggles.
type Notifications struct {
	Enabled       bool `json:"enabled"`
	DailyReminder bool `json:"dailyReminder"`
	WeeklyReport  bool `json:"weeklyReport"`
}

// SaturationLevel dims todos older than Days to the given opacity.
type SaturationLevel struct {
	Days    int     `json:"days"`
	Opacity float64 `json:"opacity"`
}

// SaturationAdjustment controls age-based dimming of old todos.
type SaturationAdjustment struct {
	Enabled bool              `json:"enabled"`
	Levels  []SaturationLevel `json:"levels"`
}

// Settings is the per-user preferences document. It is persisted as a
// single JSON-encoded hash field, so every member needs a JSON tag.
type Settings struct {
	Categories     []Category      `json:"categories"`
	CategoryFilter map[string]bool `json:"categoryFilter"`
	Theme          string          `json:"theme"`
	Language       string          `json:"language"`

	AutoMoveTodos             bool   `json:"autoMoveTodos"`
	ShowTaskMoveNotifications bool   `json:"showTaskMoveNotifications"`
	CompletedTodoDisplay      string `json:"completedTodoDisplay"`

	DateFormat string `json:"dateFormat"`
	TimeFormat string `json:"timeFormat"`
	WeekStart  string `json:"weekStart"`

	Notifications Notifications `json:"notifications"`

	AutoBackup     bool   `json:"autoBackup"`
	BackupInterval string `json:"backupInterval"`

	ThemeColor           string               `json:"themeColor"`
	CustomColor          string               `json:"customColor"`
	DefaultView          string               `json:"defaultView"`
	Timezone             string               `json:"timezone"`
	OldTodoDisplayLimit  int                  `json:"oldTodoDisplayLimit"`
	SaturationAdjustment SaturationAdjustment `json:"saturationAdjustment"`
	ShowWeekends         bool                 `json:"showWeekends"`
}

// UserSettings is the stored settings entity. Exactly one exists per user.
type UserSettings struct {
	Meta
	UserID   string   `json:"userId"`
	Settings Settings `json:"settings"`
}

// OwnerID returns the owning user's id.
func (s *UserSettings) OwnerID() string { return s.UserID }

// FindCategory returns the category with the given id, or nil.
func (s *UserSettings) FindCategory(id string) *Category {
	for i := range s.Settings.Categories {
		if s.Settings.Categories[i].ID == id {
			return &s.Settings.Categories[i]
		}
	}
	return nil
}

// DefaultSettings returns the settings a new account starts with,
// including the two default categories.
func DefaultSettings(now time.Time) Settings {
	categories := []Category{
		{ID: uuid.NewString(), Name: "Personal", Color: "#3b82f6", CreatedAt: now, Order: 0},
		{ID: uuid.NewString(), Name: "Work", Color: "#10b981", CreatedAt: now, Order: 1},
	}

	filter := make(map[string]bool, len(categories))
	for _, c := range categories {
		filter[c.ID] = true
	}

	return Settings{
		Categories:     categories,
		CategoryFilter: filter,
		Theme:          "system",
		Language:       "en",

		AutoMoveTodos:             true,
		ShowTaskMoveNotifications: true,
		CompletedTodoDisplay:      "yesterday",

		DateFormat: "YYYY-MM-DD",
		TimeFormat: "24h",
		WeekStart:  "monday",

		Notifications: Notifications{
			Enabled:       true,
			DailyReminder: false,
			WeeklyReport:  false,
		},

		AutoBackup:     false,
		BackupInterval: "weekly",

		ThemeColor:          "#3b82f6",
		CustomColor:         "#3b82f6",
		DefaultView:         "month",
		Timezone:            "UTC",
		OldTodoDisplayLimit: 14,
		SaturationAdjustment: SaturationAdjustment{
			Enabled: true,
			Levels: []SaturationLevel{
				{Days: 1, Opacity: 0.9},
				{Days: 3, Opacity: 0.7},
				{Days: 7, Opacity: 0.5},
				{Days: 14, Opacity: 0.3},
				{Days: 30, Opacity: 0.1},
			},
		},
		ShowWeekends: true,
	}
}

// MergeSettings overlays the non-nil fields of a partial update onto base.
// Nested documents merge member-wise; the saturation levels slice is
// replaced wholesale when provided.
func MergeSettings(base Settings, patch SettingsPatch) Settings {
	out := base

	if patch.Categories != nil {
		out.Categories = *patch.Categories
	}
	if patch.CategoryFilter != nil {
		out.CategoryFilter = *patch.CategoryFilter
	}
	if patch.Theme != nil {
		out.Theme = *patch.Theme
	}
	if patch.Language != nil {
		out.Language = *patch.Language
	}
	if patch.AutoMoveTodos != nil {
		out.AutoMoveTodos = *patch.AutoMoveTodos
	}
	if patch.ShowTaskMoveNotifications != nil {
		out.ShowTaskMoveNotifications = *patch.ShowTaskMoveNotifications
	}
	if patch.CompletedTodoDisplay != nil {
		out.CompletedTodoDisplay = *patch.CompletedTodoDisplay
	}
	if patch.DateFormat != nil {
		out.DateFormat = *patch.DateFormat
	}
	if patch.TimeFormat != nil {
		out.TimeFormat = *patch.TimeFormat
	}
	if patch.WeekStart != nil {
		out.WeekStart = *patch.WeekStart
	}
	if patch.Notifications != nil {
		if patch.Notifications.Enabled != nil {
			out.Notifications.Enabled = *patch.Notifications.Enabled
		}
		if patch.Notifications.DailyReminder != nil {
			out.Notifications.DailyReminder = *patch.Notifications.DailyReminder
		}
		if patch.Notifications.WeeklyReport != nil {
			out.Notifications.WeeklyReport = *patch.Notifications.WeeklyReport
		}
	}
	if patch.AutoBackup != nil {
		out.AutoBackup = *patch.AutoBackup
	}
	if patch.BackupInterval != nil {
		out.BackupInterval = *patch.BackupInterval
	}
	if patch.ThemeColor != nil {
		out.ThemeColor = *patch.ThemeColor
	}
	if patch.CustomColor != nil {
		out.CustomColor = *patch.CustomColor
	}
	if patch.DefaultView != nil {
		out.DefaultView = *patch.DefaultView
	}
	if patch.Timezone != nil {
		out.Timezone = *patch.Timezone
	}
	if patch.OldTodoDisplayLimit != nil {
		out.OldTodoDisplayLimit = *patch.OldTodoDisplayLimit
	}
	if patch.SaturationAdjustment != nil {
		if patch.SaturationAdjustment.Enabled != nil {
			out.SaturationAdjustment.Enabled = *patch.SaturationAdjustment.Enabled
		}
		if patch.SaturationAdjustment.Levels != nil {
			out.SaturationAdjustment.Levels = *patch.SaturationAdjustment.Levels
		}
	}
	if patch.ShowWeekends != nil {
		out.ShowWeekends = *patch.ShowWeekends
	}

	return out
}

// SettingsPatch is a partial settings update; nil members are left as-is.
type SettingsPatch struct {
	Categories                *[]Category                `json:"categories"`
	CategoryFilter            *map[string]bool           `json:"categoryFilter"`
	Theme                     *string                    `json:"theme"`
	Language                  *string                    `json:"language"`
	AutoMoveTodos             *bool                      `json:"autoMoveTodos"`
	ShowTaskMoveNotifications *bool                      `json:"showTaskMoveNotifications"`
	CompletedTodoDisplay      *string                    `json:"completedTodoDisplay"`
	DateFormat                *string                    `json:"dateFormat"`
	TimeFormat                *string                    `json:"timeFormat"`
	WeekStart                 *string                    `json:"weekStart"`
	Notifications             *NotificationsPatch        `json:"notifications"`
	AutoBackup                *bool                      `json:"autoBackup"`
	BackupInterval            *string                    `json:"backupInterval"`
	ThemeColor                *string                    `json:"themeColor"`
	CustomColor               *string                    `json:"customColor"`
	DefaultView               *string                    `json:"defaultView"`
	Timezone                  *string                    `json:"timezone"`
	OldTodoDisplayLimit       *int                       `json:"oldTodoDisplayLimit"`
	SaturationAdjustment      *SaturationAdjustmentPatch `json:"saturationAdjustment"`
	ShowWeekends              *bool                      `json:"showWeekends"`
}

// NotificationsPatch is a partial update of Notifications.
type NotificationsPatch struct {
	Enabled       *bool `json:"enabled"`
	DailyReminder *bool `json:"dailyReminder"`
	WeeklyReport  *bool `json:"weeklyReport"`
}

// SaturationAdjustmentPatch is a partial update of SaturationAdjustment.
type SaturationAdjustmentPatch struct {
	Enabled *bool              `json:"enabled"`
	Levels  *[]SaturationLevel `json:"levels"`
}
