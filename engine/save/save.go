// Package save implements JSON snapshots of a running game.
package save

import (
	"encoding/json"
	"fmt"

	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// Data is the on-disk save format: the full entity list plus everything
// needed to replay the RNG to its exact position.
type Data struct {
	Version     string               `json:"version"`
	Game        string               `json:"game"`
	Turn        int                  `json:"turn"`
	Entities    []types.EntityRecord `json:"entities"`
	RNGSeed     int64                `json:"rng_seed"`
	RNGPosition int64                `json:"rng_position"`
	CommandLog  []string             `json:"command_log"`
}

// Snapshot serializes the world, turn count, RNG state, and command log.
func Snapshot(info types.GameInfo, w *world.World, rng *world.RNG, turn int, commandLog []string) ([]byte, error) {
	data := Data{
		Version:     info.Version,
		Game:        info.Title,
		Turn:        turn,
		RNGSeed:     rng.Seed(),
		RNGPosition: rng.Position(),
		CommandLog:  commandLog,
	}
	for _, e := range w.Entities() {
		data.Entities = append(data.Entities, types.EntityRecord{
			ID:        e.ID,
			Behaviors: e.Behaviors,
			Props:     e.Props,
		})
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load parses save bytes. Slices are never nil after load.
func Load(raw []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing save: %w", err)
	}
	if d.Entities == nil {
		d.Entities = []types.EntityRecord{}
	}
	if d.CommandLog == nil {
		d.CommandLog = []string{}
	}
	return &d, nil
}

// RestoreWorld rebuilds the world from the saved records, preserving
// their order.
func (d *Data) RestoreWorld() (*world.World, error) {
	w := world.New()
	for _, rec := range d.Entities {
		e := world.NewEntity(rec.ID, rec.Behaviors...)
		for k, v := range rec.Props {
			e.SetProp(k, v)
		}
		if err := w.Add(e); err != nil {
			return nil, fmt.Errorf("restoring entities: %w", err)
		}
	}
	return w, nil
}

// RestoreRNG rebuilds the RNG at its saved position so post-load rolls
// continue the original sequence.
func (d *Data) RestoreRNG() *world.RNG {
	return world.RestoreRNG(d.RNGSeed, d.RNGPosition)
}
