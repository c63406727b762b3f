package storage

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/weighbit/internal/constants"
)

// New builds the Provider for backend rooted at dataDir
func New(backend Backend, dataDir string, maxBlobBytes int) (Provider, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(filepath.Join(dataDir, constants.SQLiteFileName), maxBlobBytes), nil
	case BackendJSON:
		return NewJSONStore(filepath.Join(dataDir, constants.JSONDirName), maxBlobBytes), nil
	case BackendMemory:
		return NewMemoryStore(maxBlobBytes), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}
