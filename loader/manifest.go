package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/okenna/fablecore/types"
)

// Manifest is the game's world.yaml: the metadata header plus the module
// roster.
type Manifest struct {
	Title   string    `yaml:"title"`
	Author  string    `yaml:"author"`
	Version string    `yaml:"version"`
	Intro   string    `yaml:"intro"`
	Player  string    `yaml:"player"`
	Seed    int64     `yaml:"seed"`
	Modules ModuleSet `yaml:"modules"`
}

// ModuleSet picks which modules the game activates in each tier. A nil
// list means everything available: all registered native modules for core
// and library, every compiled Lua module for content. An explicitly empty
// list activates none.
type ModuleSet struct {
	Core    []string `yaml:"core"`
	Library []string `yaml:"library"`
	Content []string `yaml:"content"`
}

func defaultManifest() Manifest {
	return Manifest{Player: "player"}
}

// ReadManifest loads and validates a world.yaml.
func ReadManifest(path string) (Manifest, error) {
	man := defaultManifest()
	b, err := os.ReadFile(path)
	if err != nil {
		return man, err
	}
	if err := yaml.Unmarshal(b, &man); err != nil {
		return man, fmt.Errorf("world.yaml: %w", err)
	}
	if err := man.Validate(); err != nil {
		return man, fmt.Errorf("world.yaml: %w", err)
	}
	return man, nil
}

// Validate checks the fields no game can run without.
func (m *Manifest) Validate() error {
	if m.Title == "" {
		return fmt.Errorf("title is required")
	}
	if m.Player == "" {
		return fmt.Errorf("player is required")
	}
	return nil
}

// Info converts the manifest header into the engine's metadata form.
func (m *Manifest) Info() types.GameInfo {
	return types.GameInfo{
		Title:   m.Title,
		Author:  m.Author,
		Version: m.Version,
		Intro:   m.Intro,
		Player:  m.Player,
	}
}
