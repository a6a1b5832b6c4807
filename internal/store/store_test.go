package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"triage-backend/internal/models"
	"triage-backend/pkg/utils"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "triage.db"))
	require.NoError(t, err)
	return s
}

func TestOpenMigratesEmptyBoard(t *testing.T) {
	s := openTestStore(t)

	queue, history, err := s.LoadBoard()
	require.NoError(t, err)
	require.Nil(t, queue)
	require.Nil(t, history)
}

func TestBoardRoundtrip(t *testing.T) {
	s := openTestStore(t)

	arrival := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	attended := arrival.Add(30 * time.Minute)
	queue := []models.Patient{{
		ID:        "p1",
		Name:      "María López",
		Level:     models.LevelRed,
		ArrivalAt: arrival,
		Status:    models.StatusWaiting,
		Evolutions: []models.Note{
			{Author: "desk", Text: "arrived by ambulance", At: arrival},
		},
	}}
	history := []models.Patient{{
		ID:         "p0",
		Name:       "John Smith",
		Level:      models.LevelGreen,
		ArrivalAt:  arrival.Add(-time.Hour),
		Status:     models.StatusInConsultation,
		AttendedAt: &attended,
		AttendedBy: "Dr. House",
		GuardDay:   "2026-03-10",
	}}

	require.NoError(t, s.SaveBoard(queue, history))

	gotQueue, gotHistory, err := s.LoadBoard()
	require.NoError(t, err)
	require.Equal(t, queue, gotQueue)
	require.Equal(t, history, gotHistory)
}

func TestSaveBoardOverwritesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SaveBoard([]models.Patient{{ID: "a", Name: "A"}}, nil))
	require.NoError(t, s.SaveBoard([]models.Patient{{ID: "b", Name: "B"}}, nil))

	queue, _, err := s.LoadBoard()
	require.NoError(t, err)
	require.Len(t, queue, 1)
	require.Equal(t, "b", queue[0].ID)
}

func TestLoadUsersSeedsDefaults(t *testing.T) {
	s := openTestStore(t)

	users, err := s.LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 3)

	byName := map[string]models.User{}
	for _, u := range users {
		byName[u.Username] = u
	}
	require.Equal(t, models.RoleRegistrar, byName["desk"].Role)
	require.Equal(t, models.RolePhysician, byName["oncall"].Role)
	require.Equal(t, models.RoleStats, byName["stats"].Role)
	require.True(t, utils.CheckPassword("desk2025", byName["desk"].PasswordHash))

	// Seeding happens once.
	again, err := s.LoadUsers()
	require.NoError(t, err)
	require.Len(t, again, 3)
}

func TestSaveUsersReplacesDirectory(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadUsers()
	require.NoError(t, err)

	require.NoError(t, s.SaveUsers([]models.User{
		{Username: "night1", PasswordHash: "hash", Role: models.RolePhysician, FullName: "Dr. Night", Token: "tok"},
	}))

	users, err := s.LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "night1", users[0].Username)
	require.Equal(t, "tok", users[0].Token)
}

func TestLoadPresetsSeedsDefaults(t *testing.T) {
	s := openTestStore(t)

	presets, err := s.LoadPresets()
	require.NoError(t, err)
	require.Len(t, presets, 6)

	levels := map[string]models.TriageLevel{}
	for _, p := range presets {
		levels[p.Text] = p.Level
	}
	require.Equal(t, models.LevelRed, levels["Chest pain"])
	require.Equal(t, models.LevelBlue, levels["Prescription refill"])
}

func TestSavePresetsReplacesCatalog(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadPresets()
	require.NoError(t, err)

	require.NoError(t, s.SavePresets([]models.Preset{
		{Text: "Head trauma", Level: models.LevelRed},
	}))

	presets, err := s.LoadPresets()
	require.NoError(t, err)
	require.Len(t, presets, 1)
	require.Equal(t, "Head trauma", presets[0].Text)

	// An emptied table looks like a fresh install, so the next load reseeds.
	require.NoError(t, s.SavePresets(nil))
	presets, err = s.LoadPresets()
	require.NoError(t, err)
	require.Len(t, presets, 6)
}
