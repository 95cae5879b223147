package refdata

import (
	"errors"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/logger"
)

// Set bundles every reference input of one run.
// A nil member means that input could not be loaded and its stage is skipped.
// ⭐ SSOT: 실행 단위 기준데이터 묶음 (읽기 전용)
type Set struct {
	Sectors  []contracts.SectorRef
	Extremes map[string]contracts.ExtremeRef
	Circuit  contracts.CircuitBands
	History  *contracts.History

	Status []FileStatus
}

// FileStatus reports how one reference file loaded
type FileStatus struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Loaded  bool   `json:"loaded"`
	Missing bool   `json:"missing"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

// Load reads all reference files. It never fails: unusable files are logged and left nil.
func Load(cfg config.DataConfig, log *logger.Logger) *Set {
	set := &Set{}

	if refs, err := LoadSectors(cfg.SectorFile); set.record(log, "sector", cfg.SectorFile, len(refs), err) {
		set.Sectors = refs
	}
	if ext, err := LoadExtremes(cfg.ExtremesFile); set.record(log, "52wk", cfg.ExtremesFile, len(ext), err) {
		set.Extremes = ext
	}
	if bands, err := LoadCircuitBands(cfg.CircuitFile); set.record(log, "circuit", cfg.CircuitFile, len(bands), err) {
		set.Circuit = bands
	}
	if entries, err := LoadHistory(cfg.HistoryFile); set.record(log, "history", cfg.HistoryFile, len(entries), err) {
		set.History = contracts.NewHistory(entries)
	}

	return set
}

func (s *Set) record(log *logger.Logger, name, path string, n int, err error) bool {
	st := FileStatus{Name: name, Path: path, Entries: n, Loaded: err == nil}
	l := log.WithFields(map[string]interface{}{"file": name, "path": path})

	switch {
	case err == nil:
		l.WithField("entries", n).Info("reference loaded")
	case errors.Is(err, contracts.ErrMissingReference):
		st.Missing = true
		st.Error = err.Error()
		l.Warn("reference file not found, stage will be skipped")
	default:
		st.Error = err.Error()
		l.WithError(err).Error("reference file unreadable, stage will be skipped")
	}

	s.Status = append(s.Status, st)
	return err == nil
}
