package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ArtifactStore persists raw model responses for offline debugging. A nil
// store is valid and drops everything.
type ArtifactStore struct {
	dir    string
	logger *slog.Logger
}

func NewArtifactStore(dir string, logger *slog.Logger) *ArtifactStore {
	if dir == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactStore{dir: dir, logger: logger}
}

// Save writes a raw response under api_response_<role>_<timestamp>_<run>.txt,
// where role is "single" or "chunk_N". The run ID keeps concurrent analyses
// saving the same role within the same second from overwriting each other.
// Failures are logged and swallowed: artifacts never fail an analysis.
func (s *ArtifactStore) Save(runID, role string, raw []byte) string {
	if s == nil || len(raw) == 0 {
		return ""
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("artifact.mkdir_failed", "dir", s.dir, "error", err)
		return ""
	}
	if len(runID) > 8 {
		runID = runID[:8]
	}
	name := fmt.Sprintf("api_response_%s_%s_%s.txt", role, time.Now().Format("20060102_150405"), runID)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		s.logger.Warn("artifact.write_failed", "path", path, "error", err)
		return ""
	}
	s.logger.Debug("artifact.saved", "path", path, "bytes", len(raw))
	return path
}
