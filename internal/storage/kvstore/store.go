package kvstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/ost"
)

// Open loads the context stored under key. A missing key yields an empty
// context that is stored immediately. Persist failures are returned to the
// caller of the mutating operation.
func Open(kv KV, key string, logger *zap.Logger) (*ost.Engine, error) {
	if kv == nil {
		return nil, fmt.Errorf("kvstore: store is required")
	}
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	snapshot := ost.EmptySnapshot()
	data, found, err := kv.Get(key)
	if err != nil {
		return nil, err
	}
	if found {
		snapshot, err = ost.DecodeSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("kvstore: key %s: %w", key, err)
		}
	} else {
		logger.Info("context key missing, starting empty", zap.String("key", key))
	}

	engine, err := ost.NewEngine(ost.EngineConfig{
		Snapshot: snapshot,
		Persist: func(snapshot ost.Snapshot) error {
			encoded, err := ost.EncodeSnapshot(snapshot)
			if err != nil {
				return err
			}
			return kv.Set(key, encoded)
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore: key %s: %w", key, err)
	}
	if !found {
		if err := engine.Persist(); err != nil {
			return nil, err
		}
	}
	return engine, nil
}
