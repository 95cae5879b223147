package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wonny/universe/internal/contracts"
	"github.com/wonny/universe/internal/refdata"
	"github.com/wonny/universe/pkg/config"
	"github.com/wonny/universe/pkg/logger"
)

// FileStore writes the snapshot and its version marker under the output directory
// ⭐ SSOT: 스냅샷 파일 저장은 여기서만
type FileStore struct {
	dir          string
	universeFile string
	versionFile  string
	savers       []Saver
	logger       *logger.Logger
}

// NewFileStore creates a FileStore for the configured output formats
func NewFileStore(cfg config.DataConfig, log *logger.Logger) (*FileStore, error) {
	s := &FileStore{
		dir:          cfg.OutputDir,
		universeFile: cfg.UniverseFile,
		versionFile:  cfg.VersionFile,
		logger:       log.WithField("module", "snapshot_store"),
	}

	for _, format := range cfg.OutputFormats {
		saver := NewSaver(format)
		if saver == nil {
			return nil, fmt.Errorf("unsupported output format %q", format)
		}
		s.savers = append(s.savers, saver)
	}
	if len(s.savers) == 0 {
		s.savers = []Saver{JSONSaver{}}
	}

	return s, nil
}

// PathFor returns the output path for a saver extension
func (s *FileStore) PathFor(ext string) string {
	base := strings.TrimSuffix(s.universeFile, filepath.Ext(s.universeFile))
	return filepath.Join(s.dir, base+"."+ext)
}

// VersionPath returns the path of the version marker
func (s *FileStore) VersionPath() string {
	return filepath.Join(s.dir, s.versionFile)
}

// Save writes every configured format, then the version marker.
// The marker is written last so readers never see a version newer than the data.
func (s *FileStore) Save(snap *contracts.Snapshot) ([]string, error) {
	written := make([]string, 0, len(s.savers)+1)

	for _, saver := range s.savers {
		path := s.PathFor(saver.Extension())
		if err := saver.Save(snap.Rows, path); err != nil {
			return written, fmt.Errorf("save %s snapshot: %w", saver.Extension(), err)
		}
		written = append(written, path)
	}

	data, err := json.MarshalIndent(snap.Version, "", "  ")
	if err != nil {
		return written, fmt.Errorf("encode version: %w", err)
	}
	if err := refdata.WriteFileAtomic(s.VersionPath(), append(data, '\n')); err != nil {
		return written, fmt.Errorf("save version: %w", err)
	}
	written = append(written, s.VersionPath())

	s.logger.WithFields(map[string]interface{}{
		"count": snap.Count(),
		"files": written,
	}).Info("Snapshot saved")

	return written, nil
}

// ReadRows returns the raw JSON snapshot file
func (s *FileStore) ReadRows() (json.RawMessage, error) {
	data, err := os.ReadFile(s.PathFor(JSONSaver{}.Extension()))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return json.RawMessage(data), nil
}

// ReadVersion returns the current version marker
func (s *FileStore) ReadVersion() (contracts.Version, error) {
	var v contracts.Version
	data, err := os.ReadFile(s.VersionPath())
	if err != nil {
		return v, fmt.Errorf("read version: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode version: %w", err)
	}
	return v, nil
}
