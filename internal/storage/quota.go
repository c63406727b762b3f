package storage

import (
	"errors"
	"fmt"
	"strings"
	"syscall"

	apperrors "github.com/julianstephens/weighbit/internal/errors"
)

// checkQuota rejects values larger than max; max <= 0 disables the limit
func checkQuota(key string, value []byte, max int) error {
	if max > 0 && len(value) > max {
		return fmt.Errorf("%w: %q is %d bytes, limit is %d", apperrors.ErrQuotaExceeded, key, len(value), max)
	}
	return nil
}

// classifyWriteError maps out-of-space failures onto ErrQuotaExceeded
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%w: %v", apperrors.ErrQuotaExceeded, err)
	}
	// SQLITE_FULL
	if strings.Contains(err.Error(), "database or disk is full") {
		return fmt.Errorf("%w: %v", apperrors.ErrQuotaExceeded, err)
	}
	return err
}
