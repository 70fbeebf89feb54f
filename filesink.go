package xhlog

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// LockModel selects the file-locking discipline for file-backed appenders.
// This is an explicit configuration choice, not an implicit default: the
// tradeoff between write overhead and multi-process safety belongs to the
// operator.
type LockModel int

const (
	// LockExclusive keeps the handle open and the advisory lock held for
	// the appender's entire lifetime between rotations. Lowest per-write
	// overhead; unsafe when several processes share one file.
	LockExclusive LockModel = iota
	// LockMinimal acquires the lock and opens the handle per write, then
	// releases both. Safe for multi-process sharing at higher I/O cost.
	LockMinimal
)

func (m LockModel) String() string {
	if m == LockMinimal {
		return "minimal"
	}
	return "exclusive"
}

// ParseLockModel maps a configuration value; unknown values report an error
// so configuration can fall back explicitly.
func ParseLockModel(s string) (LockModel, error) {
	switch s {
	case "", "exclusive":
		return LockExclusive, nil
	case "minimal":
		return LockMinimal, nil
	}
	return LockExclusive, fmt.Errorf("xhlog: unknown lock model %q", s)
}

const logFileMode = 0o644

// fileSink is the shared write path for the plain and rolling file
// appenders. It owns the handle, the advisory inter-process lock and the
// running size of the live file. Callers serialize access with the
// appender's own mutex; the flock guards against other processes only.
//
// The advisory lock lives at path+".lock" rather than on the live file, so
// it stays stable while the live file is renamed during rotation.
type fileSink struct {
	path      string
	lockModel LockModel
	flk       *flock.Flock
	file      *os.File // open only under LockExclusive
	size      int64
}

func newFileSink(path string, model LockModel) *fileSink {
	return &fileSink{
		path:      path,
		lockModel: model,
		flk:       flock.New(path + ".lock"),
	}
}

// open prepares the sink. Under LockExclusive the handle and lock are
// acquired now and held; under LockMinimal only the current size is read.
func (s *fileSink) open() error {
	if s.lockModel == LockExclusive {
		if err := s.flk.Lock(); err != nil {
			return err
		}
		f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
		if err != nil {
			s.flk.Unlock() //nolint:errcheck
			return err
		}
		st, err := f.Stat()
		if err != nil {
			f.Close() //nolint:errcheck
			s.flk.Unlock()
			return err
		}
		s.file = f
		s.size = st.Size()
		return nil
	}
	if st, err := os.Stat(s.path); err == nil {
		s.size = st.Size()
	} else {
		s.size = 0
	}
	return nil
}

func (s *fileSink) write(b []byte) error {
	if s.lockModel == LockExclusive {
		n, err := s.file.Write(b)
		s.size += int64(n)
		return err
	}
	if err := s.flk.Lock(); err != nil {
		return err
	}
	defer s.flk.Unlock() //nolint:errcheck
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		return err
	}
	n, werr := f.Write(b)
	cerr := f.Close()
	// Another writer may have appended too; prefer the authoritative size.
	if st, serr := os.Stat(s.path); serr == nil {
		s.size = st.Size()
	} else {
		s.size += int64(n)
	}
	if werr != nil {
		return werr
	}
	return cerr
}

func (s *fileSink) sync() error {
	if s.lockModel == LockExclusive && s.file != nil {
		return s.file.Sync()
	}
	return nil
}

// detach closes the handle without releasing the inter-process lock, so a
// rotation sequence stays protected end to end.
func (s *fileSink) detach() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// reattach opens a fresh handle at the base path after rotation.
func (s *fileSink) reattach() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		return err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	s.file = f
	s.size = st.Size()
	return nil
}

// lockForRoll takes the inter-process lock for a rotation when the write
// path does not already hold it.
func (s *fileSink) lockForRoll() error {
	if s.lockModel == LockExclusive {
		return nil // held since open
	}
	return s.flk.Lock()
}

func (s *fileSink) unlockAfterRoll() {
	if s.lockModel == LockExclusive {
		return
	}
	s.flk.Unlock() //nolint:errcheck
}

func (s *fileSink) close() error {
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	if s.lockModel == LockExclusive {
		if uerr := s.flk.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}
