// Package types defines the shared data structures for the FableCore engine.
// This package contains only type definitions: no logic, no methods.
package types

// Intent is the parsed representation of a player command. The parser fills
// Verb, Object, and Target from the raw words; the engine fills Actor and
// the resolved entity IDs before handing the intent to a verb handler.
type Intent struct {
	Verb   string
	Object string // optional, raw words
	Target string // optional, raw words

	Actor    string // acting entity ID
	ObjectID string // resolved entity ID, "" if Object did not resolve
	TargetID string // resolved entity ID, "" if Target did not resolve
}

// EntityRecord is the serialized form of a world entity. Loaded from the
// game's entities/*.json files and written back out by the save layer.
type EntityRecord struct {
	ID        string         `json:"id"`
	Behaviors []string       `json:"behaviors"`
	Props     map[string]any `json:"props,omitempty"`
}

// GameInfo holds game metadata from the world manifest.
type GameInfo struct {
	Title   string
	Author  string
	Version string
	Intro   string
	Player  string // entity ID the shells act through
}
