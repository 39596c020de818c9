package tui

import (
	"fmt"
	"os"

	"github.com/javiermolinar/orga/internal/config"
)

// InitState tracks whether first-run initialization is required.
type InitState struct {
	NeedsInit     bool
	ConfigMissing bool
	DBMissing     bool
	ConfigPath    string
	DBPath        string
}

// DetectInitState checks for a missing config file and, in local mode, a
// missing database file.
func DetectInitState(cfg *config.Config, configPath string) (InitState, error) {
	state := InitState{ConfigPath: configPath}

	configMissing, err := pathMissing(state.ConfigPath)
	if err != nil {
		return InitState{}, fmt.Errorf("checking config path: %w", err)
	}
	state.ConfigMissing = configMissing

	if cfg.API.Mode == config.ModeLocal {
		state.DBPath = cfg.Storage.DBPath
		dbMissing, err := pathMissing(state.DBPath)
		if err != nil {
			return InitState{}, fmt.Errorf("checking db path: %w", err)
		}
		state.DBMissing = dbMissing
	}

	state.NeedsInit = state.ConfigMissing || state.DBMissing
	return state, nil
}

// Initialize writes the configuration when it is missing. The database
// file, if any, is created when the backend is opened.
func (s InitState) Initialize(cfg *config.Config) error {
	if !s.ConfigMissing {
		return nil
	}
	if err := cfg.SaveTo(s.ConfigPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	return nil
}

func pathMissing(path string) (bool, error) {
	if path == "" {
		return true, nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}
