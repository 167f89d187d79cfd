// Package history records when targets were last opened successfully.
package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"xpipe-browser/internal/appconfig"
)

type store struct {
	LastOpened map[string]int64 `json:"last_opened"`
}

func filePath() (string, error) {
	dir, err := appconfig.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.json"), nil
}

// Touch records a successful session launch for a display name.
func Touch(name string) error {
	st, err := load()
	if err != nil {
		return err
	}
	if st.LastOpened == nil {
		st.LastOpened = map[string]int64{}
	}
	st.LastOpened[name] = time.Now().Unix()
	return save(st)
}

// LastOpened returns last successful launch timestamps by display name.
func LastOpened() (map[string]int64, error) {
	st, err := load()
	if err != nil {
		return nil, err
	}
	return st.LastOpened, nil
}

func load() (store, error) {
	path, err := filePath()
	if err != nil {
		return store{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store{LastOpened: map[string]int64{}}, nil
		}
		return store{}, err
	}
	var st store
	if err := json.Unmarshal(b, &st); err != nil {
		return store{LastOpened: map[string]int64{}}, nil
	}
	if st.LastOpened == nil {
		st.LastOpened = map[string]int64{}
	}
	return st, nil
}

func save(st store) error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
