package qtable

import (
	"bufio"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// FormatVersion of the saved files.
const FormatVersion = 1

type savedStore struct {
	Version int
	Records []record
}

// Save store to s.FileName. An existing file is first renamed with a "~" suffix.
//
// It is a no-op (with an error logged) if no FileName was set.
func (s *Store) Save() error {
	s.muSave.Lock()
	defer s.muSave.Unlock()

	if s.FileName == "" {
		klog.Errorf("Action-value store not saved, because no file name was specified")
		return nil
	}

	// Rename existing file, if it exists.
	fileName := s.FileName
	if _, err := os.Stat(fileName); err == nil {
		err = os.Rename(fileName, fileName+"~")
		if err != nil {
			return errors.Wrapf(err, "failed to rename %s to %s", fileName, fileName+"~")
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to stat %s", fileName)
	}

	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", fileName)
	}
	w := bufio.NewWriter(f)
	saved := savedStore{Version: FormatVersion, Records: s.sortedRecords()}
	if err = gob.NewEncoder(w).Encode(&saved); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to encode action values to %s", fileName)
	}
	if err = w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", fileName)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", fileName)
	}
	klog.V(1).Infof("Saved %d action values to %s", len(saved.Records), fileName)
	return nil
}

// LoadOrCreate the store from fileName, or create an empty one if the file doesn't exist.
// The returned store has FileName set, so Save writes back to the same file.
//
// If fileName is empty, it returns an empty store not associated to any file.
func LoadOrCreate(fileName string) (*Store, error) {
	s := New()
	s.FileName = fileName
	if fileName == "" {
		return s, nil
	}
	f, err := os.Open(fileName)
	if os.IsNotExist(err) {
		klog.V(1).Infof("New action-value store created for %s", fileName)
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "LoadOrCreate failed to open %s", fileName)
	}
	defer func() { _ = f.Close() }()

	var saved savedStore
	if err = gob.NewDecoder(bufio.NewReader(f)).Decode(&saved); err != nil {
		return nil, errors.Wrapf(err, "LoadOrCreate failed to decode %s", fileName)
	}
	if saved.Version != FormatVersion {
		return nil, errors.Errorf("LoadOrCreate: %s has format version %d, only version %d is supported",
			fileName, saved.Version, FormatVersion)
	}
	if err = s.setRecords(saved.Records); err != nil {
		return nil, errors.WithMessagef(err, "LoadOrCreate failed to load %s", fileName)
	}
	klog.V(1).Infof("Loaded %d action values from %s", s.Len(), fileName)
	return s, nil
}
