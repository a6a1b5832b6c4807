// Package store is the persistence port of the triage board. Users and
// presets live in normal tables; the board itself (active queue + history
// archive) is written as one opaque JSON snapshot row per save, which is
// all the durability the board needs (best effort, last write wins).
package store

import (
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"triage-backend/internal/models"
	"triage-backend/pkg/utils"
)

const boardSnapshotName = "board"

// snapshotRow is a named JSON blob. Only "board" is used today.
type snapshotRow struct {
	Name      string         `gorm:"primaryKey;size:50"`
	Data      datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}

func (snapshotRow) TableName() string { return "snapshots" }

type boardSnapshot struct {
	Queue   []models.Patient `json:"queue"`
	History []models.Patient `json:"history"`
}

// Store wraps the gorm handle. Safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite file and migrates the schema.
// Use ":memory:" in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Preset{}, &snapshotRow{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// LoadBoard returns the last saved queue and history. A missing snapshot
// is a fresh install, not an error.
func (s *Store) LoadBoard() (queue, history []models.Patient, err error) {
	var row snapshotRow
	if err := s.db.First(&row, "name = ?", boardSnapshotName).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var snap boardSnapshot
	if err := json.Unmarshal(row.Data, &snap); err != nil {
		return nil, nil, err
	}
	return snap.Queue, snap.History, nil
}

// SaveBoard overwrites the board snapshot.
func (s *Store) SaveBoard(queue, history []models.Patient) error {
	data, err := json.Marshal(boardSnapshot{Queue: queue, History: history})
	if err != nil {
		return err
	}
	return s.SaveBoardRaw(data)
}

// SaveBoardRaw stores an already-marshaled board snapshot. The core
// marshals inside its loop so the bytes match the state at mutation time,
// then hands the write off without waiting.
func (s *Store) SaveBoardRaw(data []byte) error {
	row := snapshotRow{Name: boardSnapshotName, Data: datatypes.JSON(data)}
	return s.db.Save(&row).Error
}

// LoadUsers returns the user directory, seeding the default staff
// accounts on first run. The admin account is never in here.
func (s *Store) LoadUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) > 0 {
		return users, nil
	}

	users = defaultUsers()
	if err := s.db.Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SaveUsers replaces the whole directory. The directory is tiny (staff of
// one department), so full replace keeps it in step with the in-memory copy.
func (s *Store) SaveUsers(users []models.User) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
			return err
		}
		if len(users) == 0 {
			return nil
		}
		return tx.Create(&users).Error
	})
}

// LoadPresets returns the observation presets, seeding the defaults on
// first run.
func (s *Store) LoadPresets() ([]models.Preset, error) {
	var presets []models.Preset
	if err := s.db.Order("text").Find(&presets).Error; err != nil {
		return nil, err
	}
	if len(presets) > 0 {
		return presets, nil
	}

	presets = defaultPresets()
	if err := s.db.Create(&presets).Error; err != nil {
		return nil, err
	}
	return presets, nil
}

// SavePresets replaces the preset catalog.
func (s *Store) SavePresets(presets []models.Preset) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Preset{}).Error; err != nil {
			return err
		}
		if len(presets) == 0 {
			return nil
		}
		return tx.Create(&presets).Error
	})
}

func defaultUsers() []models.User {
	seed := []struct {
		username, fullName, password string
		role                         models.Role
	}{
		{"desk", "Registration Desk", "desk2025", models.RoleRegistrar},
		{"oncall", "On-Call Physician", "oncall2025", models.RolePhysician},
		{"stats", "Statistics Viewer", "stats2025", models.RoleStats},
	}

	users := make([]models.User, 0, len(seed))
	for _, u := range seed {
		hash, err := utils.HashPassword(u.password)
		if err != nil {
			continue
		}
		users = append(users, models.User{
			Username:     u.username,
			PasswordHash: hash,
			Role:         u.role,
			FullName:     u.fullName,
		})
	}
	return users
}

func defaultPresets() []models.Preset {
	return []models.Preset{
		{Text: "Chest pain", Level: models.LevelRed},
		{Text: "Shortness of breath", Level: models.LevelRed},
		{Text: "Abdominal pain", Level: models.LevelYellow},
		{Text: "High fever", Level: models.LevelYellow},
		{Text: "Minor wound", Level: models.LevelGreen},
		{Text: "Prescription refill", Level: models.LevelBlue},
	}
}
