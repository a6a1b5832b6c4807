package models

// Preset is a reusable observation text with a suggested acuity, shown as
// a shortcut on the registration screen. Text is the natural key.
type Preset struct {
	Text  string      `gorm:"primaryKey;size:200" json:"text"`
	Level TriageLevel `gorm:"size:10;not null" json:"level"`
}

// PresetInput covers create_preset / update_preset / delete_preset.
// NewText is only read by update_preset when renaming.
type PresetInput struct {
	Text    string      `json:"text"`
	NewText string      `json:"new_text"`
	Level   TriageLevel `json:"level"`
}
