package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/ost/internal/logging"
	"github.com/MarcoPoloResearchLab/ost/internal/ost"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/jsonfile"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/kvstore"
	"github.com/MarcoPoloResearchLab/ost/internal/storage/sqlite"
)

// location addresses a stored context as "file:<path>", "kv:<path>" or
// "sqlite:<path>".
type location struct {
	kind string
	path string
}

func parseLocation(raw string) (location, error) {
	kind, path, ok := strings.Cut(raw, ":")
	if !ok || strings.TrimSpace(path) == "" {
		return location{}, fmt.Errorf("location %q: expected <kind>:<path>", raw)
	}
	switch kind {
	case "file", "kv", "sqlite":
		return location{kind: kind, path: path}, nil
	default:
		return location{}, fmt.Errorf("location %q: unknown kind %q", raw, kind)
	}
}

func newConvertCommand() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Copy a stored context between backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(viper.GetString("log.level"))
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return convert(from, to, logger)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source location, e.g. file:ost_context.json")
	cmd.Flags().StringVar(&to, "to", "", "Destination location, e.g. sqlite:ost.sqlite")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func convert(from, to string, logger *zap.Logger) error {
	source, err := parseLocation(from)
	if err != nil {
		return err
	}
	destination, err := parseLocation(to)
	if err != nil {
		return err
	}
	if source == destination {
		return errors.New("convert: source and destination are the same")
	}

	snapshot, err := readLocation(source)
	if err != nil {
		return err
	}
	engine, err := ost.NewEngine(ost.EngineConfig{Snapshot: snapshot, Logger: logger})
	if err != nil {
		return fmt.Errorf("convert: %s: %w", from, err)
	}
	snapshot = engine.Snapshot()
	if err := writeLocation(destination, snapshot); err != nil {
		return err
	}
	logger.Info("context converted",
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("persons", len(snapshot.Persons)),
		zap.Int("feedings", len(snapshot.Feeds)),
		zap.Int("expulsions", len(snapshot.Expulsions)),
		zap.Int("events", len(snapshot.Events)),
	)
	return nil
}

func readLocation(loc location) (ost.Snapshot, error) {
	switch loc.kind {
	case "file":
		snapshot, found, err := jsonfile.Read(loc.path)
		if err == nil && !found {
			return ost.Snapshot{}, fmt.Errorf("convert: %s does not exist", loc.path)
		}
		return snapshot, err
	case "kv":
		bolt, err := kvstore.OpenBolt(loc.path)
		if err != nil {
			return ost.Snapshot{}, err
		}
		defer bolt.Close()
		data, found, err := bolt.Get(kvstore.DefaultKey)
		if err != nil {
			return ost.Snapshot{}, err
		}
		if !found {
			return ost.Snapshot{}, fmt.Errorf("convert: %s holds no context", loc.path)
		}
		return ost.DecodeSnapshot(data)
	default:
		store, err := sqlite.OpenStore(loc.path, nil)
		if err != nil {
			return ost.Snapshot{}, err
		}
		defer store.Close()
		return store.Load()
	}
}

func writeLocation(loc location, snapshot ost.Snapshot) error {
	switch loc.kind {
	case "file":
		return jsonfile.Write(loc.path, snapshot)
	case "kv":
		bolt, err := kvstore.OpenBolt(loc.path)
		if err != nil {
			return err
		}
		defer bolt.Close()
		encoded, err := ost.EncodeSnapshot(snapshot)
		if err != nil {
			return err
		}
		return bolt.Set(kvstore.DefaultKey, encoded)
	default:
		store, err := sqlite.OpenStore(loc.path, nil)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Save(snapshot)
	}
}
