package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings are the tunable engine constants. The zero file (or an absent
// one) yields the defaults the engine was designed around.
type Settings struct {
	StudyDayOffsetHours int `yaml:"study_day_offset_hours"`
	SessionGapMinutes   int `yaml:"session_gap_minutes"`
	SegmentGapMinutes   int `yaml:"segment_gap_minutes"`
	DailyWindowDays     int `yaml:"daily_window_days"`
	RecentMockExams     int `yaml:"recent_mock_exams"`
}

func DefaultSettings() Settings {
	return Settings{
		StudyDayOffsetHours: 6,
		SessionGapMinutes:   90,
		SegmentGapMinutes:   12,
		DailyWindowDays:     14,
		RecentMockExams:     6,
	}
}

type Config struct {
	DataDir        string
	DocumentPath   string
	LegacyExamPath string
	DBPath         string
	NotesDir       string
	Settings       Settings
}

// New resolves all paths under dataDir and merges settings.yaml over the
// defaults when the file exists.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	settings, err := loadSettings(filepath.Join(dataDir, "settings.yaml"))
	if err != nil {
		return Config{}, err
	}
	return Config{
		DataDir:        dataDir,
		DocumentPath:   filepath.Join(dataDir, "studylog.json"),
		LegacyExamPath: filepath.Join(dataDir, "legacy-exams.json"),
		DBPath:         filepath.Join(dataDir, "studylog.db"),
		NotesDir:       filepath.Join(dataDir, "notes"),
		Settings:       settings,
	}, nil
}

func loadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if settings.StudyDayOffsetHours < 0 || settings.StudyDayOffsetHours > 23 {
		return Settings{}, fmt.Errorf("study_day_offset_hours must be in [0, 23]")
	}
	if settings.DailyWindowDays <= 0 {
		settings.DailyWindowDays = DefaultSettings().DailyWindowDays
	}
	if settings.RecentMockExams <= 0 {
		settings.RecentMockExams = DefaultSettings().RecentMockExams
	}
	return settings, nil
}
