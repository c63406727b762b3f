package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/storage"
)

// setupStore creates an initialized store holding one value and returns its path
func setupStore(t *testing.T, backend storage.Backend) string {
	t.Helper()
	dataDir := t.TempDir()
	p, err := storage.New(backend, dataDir, 0)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := p.Put(constants.SnapshotKey, []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return p.GetPath()
}

func readValue(t *testing.T, backend storage.Backend, path, key string) string {
	t.Helper()
	var p storage.Provider
	if backend == storage.BackendJSON {
		p = storage.NewJSONStore(path, 0)
	} else {
		p = storage.NewSQLiteStore(path, 0)
	}
	if err := p.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close()
	v, err := p.Get(key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	return string(v)
}

func writeValue(t *testing.T, backend storage.Backend, path, key, value string) {
	t.Helper()
	var p storage.Provider
	if backend == storage.BackendJSON {
		p = storage.NewJSONStore(path, 0)
	} else {
		p = storage.NewSQLiteStore(path, 0)
	}
	if err := p.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer p.Close()
	if err := p.Put(key, []byte(value)); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

var backends = []storage.Backend{storage.BackendSQLite, storage.BackendJSON}

func TestNewManagerRejectsMemory(t *testing.T) {
	if _, err := NewManager(storage.BackendMemory, ""); !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("NewManager(memory) error = %v, want ErrUnsupportedBackend", err)
	}
}

func TestCreateAndRestoreBackup(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			path := setupStore(t, backend)
			mgr, err := NewManager(backend, path)
			if err != nil {
				t.Fatal(err)
			}

			backupPath, err := mgr.CreateBackup()
			if err != nil {
				t.Fatalf("CreateBackup failed: %v", err)
			}
			if filepath.Dir(backupPath) != mgr.GetBackupDir() {
				t.Errorf("backup written to %s, want dir %s", backupPath, mgr.GetBackupDir())
			}
			if err := mgr.VerifyBackup(backupPath); err != nil {
				t.Fatalf("VerifyBackup: %v", err)
			}

			writeValue(t, backend, path, constants.SnapshotKey, `{"version":2}`)
			writeValue(t, backend, path, "extra", "x")

			safety, err := mgr.RestoreBackup(backupPath)
			if err != nil {
				t.Fatalf("RestoreBackup failed: %v", err)
			}
			if safety == "" || safety == backupPath {
				t.Errorf("expected a distinct pre-restore backup, got %q", safety)
			}

			if got := readValue(t, backend, path, constants.SnapshotKey); got != `{"version":1}` {
				t.Errorf("restored value = %s, want version 1", got)
			}
			if backend == storage.BackendSQLite {
				if got := readValue(t, backend, safety, constants.SnapshotKey); got != `{"version":2}` {
					t.Errorf("pre-restore backup value = %s, want version 2", got)
				}
			}
		})
	}
}

func TestRestoreJSONDropsKeysNotInBackup(t *testing.T) {
	path := setupStore(t, storage.BackendJSON)
	mgr, _ := NewManager(storage.BackendJSON, path)
	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatal(err)
	}
	writeValue(t, storage.BackendJSON, path, "extra", "x")

	if _, err := mgr.RestoreBackup(backupPath); err != nil {
		t.Fatal(err)
	}
	p := storage.NewJSONStore(path, 0)
	if err := p.Load(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get("extra"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("extra key should be gone after restore, got %v", err)
	}
	for _, leftover := range []string{path + ".restore.tmp", path + ".old"} {
		if _, err := os.Stat(leftover); !os.IsNotExist(err) {
			t.Errorf("%s should not exist", leftover)
		}
	}
}

func TestBackupRotation(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			path := setupStore(t, backend)
			mgr, _ := NewManager(backend, path)

			base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
			for i := 0; i < constants.MaxBackups+3; i++ {
				at := base.Add(time.Duration(i) * time.Hour)
				mgr.now = func() time.Time { return at }
				if _, err := mgr.CreateBackup(); err != nil {
					t.Fatalf("CreateBackup %d failed: %v", i, err)
				}
			}

			backups, err := mgr.ListBackups()
			if err != nil {
				t.Fatal(err)
			}
			if len(backups) != constants.MaxBackups {
				t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
			}
			newest := base.Add(time.Duration(constants.MaxBackups+2) * time.Hour)
			if !backups[0].Timestamp.Equal(newest) {
				t.Errorf("newest backup = %v, want %v", backups[0].Timestamp, newest)
			}
			oldestKept := base.Add(3 * time.Hour)
			if !backups[len(backups)-1].Timestamp.Equal(oldestKept) {
				t.Errorf("oldest kept backup = %v, want %v", backups[len(backups)-1].Timestamp, oldestKept)
			}
		})
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	path := setupStore(t, storage.BackendSQLite)
	mgr, _ := NewManager(storage.BackendSQLite, path)
	fixed := time.Date(2024, 1, 15, 10, 30, 45, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		p, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup %d: %v", i, err)
		}
		if seen[p] {
			t.Fatalf("duplicate backup path %s", p)
		}
		seen[p] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 4 {
		t.Fatalf("ListBackups returned %d backups, want 4", len(backups))
	}
}

func TestParseBackupName(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
		want   time.Time
		ok     bool
	}{
		{name: "weighbit-20240115-1030.db", suffix: ".db", want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "weighbit-20240115-103045.db", suffix: ".db", want: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), ok: true},
		{name: "weighbit-20240115-103045-2.db", suffix: ".db", want: time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC), ok: true},
		{name: "weighbit-20240115-1030.json", suffix: ".json", want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "weighbit-20240115-1030.db", suffix: ".json"},
		{name: "other-20240115-1030.db", suffix: ".db"},
		{name: "weighbit-garbage.db", suffix: ".db"},
	}
	for _, tt := range tests {
		got, ok := parseBackupName(tt.name, tt.suffix)
		if ok != tt.ok {
			t.Errorf("parseBackupName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if ok && !got.Equal(tt.want) {
			t.Errorf("parseBackupName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestListBackupsEmpty(t *testing.T) {
	mgr, _ := NewManager(storage.BackendSQLite, filepath.Join(t.TempDir(), constants.SQLiteFileName))
	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestBackupWithNoStore(t *testing.T) {
	mgr, _ := NewManager(storage.BackendSQLite, filepath.Join(t.TempDir(), constants.SQLiteFileName))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Fatal("expected error backing up a missing store")
	}
}

func TestRestoreWithCorruptedBackup(t *testing.T) {
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			path := setupStore(t, backend)
			mgr, _ := NewManager(backend, path)
			if err := os.MkdirAll(mgr.GetBackupDir(), 0700); err != nil {
				t.Fatal(err)
			}
			bad := filepath.Join(mgr.GetBackupDir(), "weighbit-20240101-0000"+mgr.suffix())
			if err := os.WriteFile(bad, []byte("not a backup"), 0600); err != nil {
				t.Fatal(err)
			}

			_, err := mgr.RestoreBackup(bad)
			if err == nil || !strings.Contains(err.Error(), "corrupted or invalid") {
				t.Fatalf("RestoreBackup error = %v, want corruption error", err)
			}
			if got := readValue(t, backend, path, constants.SnapshotKey); got != `{"version":1}` {
				t.Errorf("store changed after failed restore: %s", got)
			}
		})
	}
}
