package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorageAt(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorage_SaveAndLoad(t *testing.T) {
	s := newTestStorage(t)

	if err := s.Save(map[string]string{
		"roiMin":    "0.05",
		"priceMode": "smart",
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded["roiMin"] != "0.05" || loaded["priceMode"] != "smart" {
		t.Errorf("Unexpected loaded map: %v", loaded)
	}
}

func TestStorage_SaveOverwrites(t *testing.T) {
	s := newTestStorage(t)

	if err := s.Save(map[string]string{"priceMode": "best_offer"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(map[string]string{"priceMode": "buy_order"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded["priceMode"] != "buy_order" {
		t.Errorf("Expected buy_order, got %q", loaded["priceMode"])
	}
}

func TestStorage_WatchReceivesChangedKeys(t *testing.T) {
	s := newTestStorage(t)
	ch := s.Watch()

	if err := s.Save(map[string]string{"autoEnabled": "true"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case keys := <-ch:
		if len(keys) != 1 || keys[0] != "autoEnabled" {
			t.Errorf("Unexpected changed keys: %v", keys)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for change notification")
	}
}

func TestStorage_EmptySaveIsNoop(t *testing.T) {
	s := newTestStorage(t)
	ch := s.Watch()

	if err := s.Save(nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	select {
	case keys := <-ch:
		t.Errorf("Unexpected notification for empty save: %v", keys)
	case <-time.After(50 * time.Millisecond):
	}
}
