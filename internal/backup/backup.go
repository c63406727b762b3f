package backup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/weighbit/internal/constants"
	"github.com/julianstephens/weighbit/internal/logger"
	"github.com/julianstephens/weighbit/internal/storage"
)

const (
	sqliteSuffix = ".db"
	jsonSuffix   = ".json"

	minuteLayout = "20060102-1504"
	secondLayout = "20060102-150405"
)

// ErrUnsupportedBackend is returned for backends with nothing on disk to back up
var ErrUnsupportedBackend = errors.New("backups are only supported for the sqlite and json backends")

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// archive is the on-disk form of a JSON-backend backup
type archive struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	Entries   map[string][]byte `json:"entries"`
}

// Manager creates, lists, rotates and restores backups of the local data store.
// For the sqlite backend srcPath is the database file, for json it is the data directory.
type Manager struct {
	backend   storage.Backend
	srcPath   string
	backupDir string
	now       func() time.Time
}

func NewManager(backend storage.Backend, srcPath string) (*Manager, error) {
	if backend != storage.BackendSQLite && backend != storage.BackendJSON {
		return nil, ErrUnsupportedBackend
	}
	return &Manager{
		backend:   backend,
		srcPath:   srcPath,
		backupDir: filepath.Join(filepath.Dir(srcPath), constants.BackupDirName),
		now:       time.Now,
	}, nil
}

// ForProvider builds a manager for an open storage provider
func ForProvider(backend storage.Backend, p storage.Provider) (*Manager, error) {
	return NewManager(backend, p.GetPath())
}

func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

func (m *Manager) suffix() string {
	if m.backend == storage.BackendJSON {
		return jsonSuffix
	}
	return sqliteSuffix
}

// CreateBackup snapshots the store and rotates old backups
func (m *Manager) CreateBackup() (string, error) {
	return m.createBackup(false)
}

// createBackup skips rotation when called from a restore so the pre-restore
// copy cannot push out the backup being restored
func (m *Manager) createBackup(skipRotation bool) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.srcPath); os.IsNotExist(err) {
		return "", fmt.Errorf("data store does not exist: %s", m.srcPath)
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", err
	}

	if m.backend == storage.BackendJSON {
		err = m.backupJSON(backupPath)
	} else {
		err = m.backupSQLite(backupPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up data store: %w", err)
	}

	if !skipRotation {
		if err := m.rotateBackups(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	logger.Debug("Backup created", "path", backupPath)
	return backupPath, nil
}

// nextBackupPath picks a free name: minute precision, then seconds, then a counter
func (m *Manager) nextBackupPath() (string, error) {
	now := m.now()
	path := filepath.Join(m.backupDir, constants.BackupFilePrefix+now.Format(minuteLayout)+m.suffix())
	if !exists(path) {
		return path, nil
	}

	stamp := now.Format(secondLayout)
	path = filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+m.suffix())
	for counter := 1; exists(path); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s%s-%d%s", constants.BackupFilePrefix, stamp, counter, m.suffix()))
	}
	return path, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (m *Manager) backupSQLite(destPath string) error {
	srcDB, err := sql.Open("sqlite", m.srcPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer srcDB.Close()

	var count int
	if err := srcDB.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := srcDB.Exec("VACUUM INTO ?", destPath); err != nil {
		logger.Warn("VACUUM INTO failed, falling back to file copy", "error", err)
		srcDB.Close()
		return copyFile(m.srcPath, destPath)
	}
	return nil
}

func (m *Manager) backupJSON(destPath string) error {
	src := storage.NewJSONStore(m.srcPath, 0)
	if err := src.Load(); err != nil {
		return err
	}
	keys, err := src.Keys()
	if err != nil {
		return err
	}

	a := archive{
		Version:   constants.SchemaVersion,
		CreatedAt: m.now().UTC(),
		Entries:   make(map[string][]byte, len(keys)),
	}
	for _, k := range keys {
		v, err := src.Get(k)
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", k, err)
		}
		a.Entries[k] = v
	}

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(destPath, data, 0600); err != nil {
		return err
	}
	return nil
}

// ListBackups returns all backups, newest first
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseBackupName(entry.Name(), m.suffix())
		if !ok {
			continue
		}
		path := filepath.Join(m.backupDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      path,
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseBackupName extracts the timestamp from names like
// weighbit-20240115-1030.db, weighbit-20240115-103045.db or weighbit-20240115-103045-2.db
func parseBackupName(name, suffix string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, suffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), suffix)

	parts := strings.Split(stamp, "-")
	if len(parts) == 3 && isDigits(parts[2]) {
		stamp = parts[0] + "-" + parts[1]
	}

	for _, layout := range []string{minuteLayout, secondLayout} {
		if ts, err := time.Parse(layout, stamp); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// RestoreBackup verifies backupPath, backs up the current store, and replaces
// it. The store must be closed. Returns the path of the pre-restore backup, if
// one was made.
func (m *Manager) RestoreBackup(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.VerifyBackup(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var safety string
	if exists(m.srcPath) {
		var err error
		safety, err = m.createBackup(true)
		if err != nil {
			return "", fmt.Errorf("failed to back up current data before restore: %w", err)
		}
	}

	var err error
	if m.backend == storage.BackendJSON {
		err = m.restoreJSON(backupPath)
	} else {
		err = m.restoreSQLite(backupPath)
	}
	if err != nil {
		return safety, err
	}
	return safety, nil
}

func (m *Manager) restoreSQLite(backupPath string) error {
	tempPath := m.srcPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		return fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tempPath, m.srcPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func (m *Manager) restoreJSON(backupPath string) error {
	a, err := readArchive(backupPath)
	if err != nil {
		return err
	}

	tempDir := m.srcPath + ".restore.tmp"
	oldDir := m.srcPath + ".old"
	_ = os.RemoveAll(tempDir)
	_ = os.RemoveAll(oldDir)

	dst := storage.NewJSONStore(tempDir, 0)
	if err := dst.Init(); err != nil {
		return err
	}
	for k, v := range a.Entries {
		if err := dst.Put(k, v); err != nil {
			os.RemoveAll(tempDir)
			return fmt.Errorf("failed to write %q: %w", k, err)
		}
	}

	if exists(m.srcPath) {
		if err := os.Rename(m.srcPath, oldDir); err != nil {
			os.RemoveAll(tempDir)
			return fmt.Errorf("failed to move current data aside: %w", err)
		}
	}
	if err := os.Rename(tempDir, m.srcPath); err != nil {
		if renameErr := os.Rename(oldDir, m.srcPath); renameErr != nil {
			logger.Error("Failed to put current data back after a failed restore", "path", oldDir, "error", renameErr)
		}
		return fmt.Errorf("failed to restore data directory: %w", err)
	}
	if err := os.RemoveAll(oldDir); err != nil {
		logger.Warn("Failed to remove previous data directory", "path", oldDir, "error", err)
	}
	return nil
}

// VerifyBackup checks that the file is a readable backup containing a key-value store
func (m *Manager) VerifyBackup(path string) error {
	if m.backend == storage.BackendJSON {
		_, err := readArchive(path)
		return err
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'kv'").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("no kv table in %s", filepath.Base(path))
	}
	return nil
}

func readArchive(path string) (archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return archive{}, err
	}
	var a archive
	if err := json.Unmarshal(data, &a); err != nil {
		return archive{}, fmt.Errorf("invalid backup archive: %w", err)
	}
	if a.Entries == nil {
		return archive{}, fmt.Errorf("backup archive has no entries")
	}
	return a, nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
