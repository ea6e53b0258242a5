package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenDeviceCore/internal/automation"
	"github.com/KevinKickass/OpenDeviceCore/internal/device"
)

//go:embed schema/snapshot-v1.json
var snapshotSchemaJSON string

// Snapshot is the persisted projection of the registry and rule set.
// Runtime state (last readings, last angles) is deliberately absent; only
// the declarative shape round-trips.
type Snapshot struct {
	Devices []device.Spec     `json:"devices"`
	Rules   []automation.Rule `json:"rules"`
}

// FileStore persists snapshots to one JSON file. Loading fails open: a
// missing or malformed file yields an empty snapshot, never an error that
// would keep the node from booting.
type FileStore struct {
	path   string
	schema *jsonschema.Schema
	logger *zap.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("snapshot-v1.json",
		strings.NewReader(snapshotSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile("snapshot-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &FileStore{
		path:   path,
		schema: schema,
		logger: logger,
	}, nil
}

// Validate checks raw snapshot JSON against the embedded schema. Used for
// both the persisted file and incoming reconfiguration payloads.
func (s *FileStore) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot. Missing file, unreadable content and
// schema violations all degrade to an empty snapshot with a log line.
func (s *FileStore) Load() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := Snapshot{Devices: []device.Spec{}, Rules: []automation.Rule{}}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Snapshot unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return empty
	}

	if err := s.Validate(data); err != nil {
		s.logger.Warn("Snapshot malformed, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return empty
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Snapshot unmarshal failed, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return empty
	}
	if snap.Devices == nil {
		snap.Devices = []device.Spec{}
	}
	if snap.Rules == nil {
		snap.Rules = []automation.Rule{}
	}
	return snap
}

// Save overwrites the persisted snapshot. The write goes through a temp
// file and rename so a crash mid-write never leaves a torn snapshot behind.
func (s *FileStore) Save(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.logger.Debug("Snapshot saved",
		zap.String("path", s.path),
		zap.Int("devices", len(snap.Devices)),
		zap.Int("rules", len(snap.Rules)))
	return nil
}
