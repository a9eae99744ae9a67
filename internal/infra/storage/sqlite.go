package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/prostak402/csmrashireniye/internal/domain"
)

// SettingRecord is one persisted raw setting. Values are stored exactly as
// entered; derivation and clamping happen on load, never here.
type SettingRecord struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

// Storage is the SQLite-backed settings store. Watchers receive the changed
// key set after every successful Save.
type Storage struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers []chan []string
}

var _ domain.SettingsStore = (*Storage)(nil)

// NewStorage creates a SQLite storage at the per-OS config location.
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt creates a SQLite storage at an explicit path.
func NewStorageAt(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&SettingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "csmrashireniye", "data", "settings.db"), nil
}

// Load returns all persisted raw settings as a map.
func (s *Storage) Load() (map[string]string, error) {
	var records []SettingRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string, len(records))
	for _, r := range records {
		result[r.Key] = r.Value
	}
	return result, nil
}

// Save upserts the given keys and notifies watchers. An empty partial is a
// no-op.
func (s *Storage) Save(partial map[string]string) error {
	if len(partial) == 0 {
		return nil
	}

	changed := make([]string, 0, len(partial))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range partial {
			rec := SettingRecord{Key: key, Value: value, UpdatedAt: time.Now()}
			if err := tx.Save(&rec).Error; err != nil {
				return err
			}
			changed = append(changed, key)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(changed)
	return nil
}

// Watch returns a channel receiving the changed key set after each Save. The
// channel is buffered; a watcher that falls behind loses notifications, not
// data, since Load always reflects the latest state.
func (s *Storage) Watch() <-chan []string {
	ch := make(chan []string, 8)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Storage) notify(changed []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- changed:
		default:
		}
	}
}

// Close releases the underlying database handle.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
