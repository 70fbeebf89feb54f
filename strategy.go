package xhlog

import (
	"fmt"
	"os"
)

// RollingStrategy decides how existing files are renamed or discarded when
// the rolling appender rotates. Roll is called with the live file path and
// must leave a fresh slot at that path on success.
type RollingStrategy interface {
	Roll(path string) error
}

// IndexRollingStrategy keeps backups named <path>.<index> with index 0 the
// most recent. Before the live file moves to <path>.0, every occupied index
// is shifted up one place, recursing from 0; the occupant of MaxIndex is
// deleted instead of shifted. Shifting before renaming the live file is
// mandatory: renaming first would either fail on an occupied target or
// silently overwrite an older backup.
type IndexRollingStrategy struct {
	// MaxIndex bounds the backup range; the backup at MaxIndex is the
	// oldest and is dropped when a new rotation needs its slot.
	MaxIndex int
}

func NewIndexRollingStrategy(maxIndex int) *IndexRollingStrategy {
	return &IndexRollingStrategy{MaxIndex: maxIndex}
}

func (s *IndexRollingStrategy) Roll(path string) error {
	if s.MaxIndex < 0 {
		return fmt.Errorf("xhlog: index strategy max index %d is negative", s.MaxIndex)
	}
	if err := s.free(path, 0); err != nil {
		return err
	}
	return os.Rename(path, backupPath(path, 0))
}

// free vacates index i, shifting occupants upward first.
func (s *IndexRollingStrategy) free(path string, i int) error {
	target := backupPath(path, i)
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if i >= s.MaxIndex {
		return os.Remove(target)
	}
	if err := s.free(path, i+1); err != nil {
		return err
	}
	return os.Rename(target, backupPath(path, i+1))
}

func backupPath(path string, index int) string {
	return fmt.Sprintf("%s.%d", path, index)
}
