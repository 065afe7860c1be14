// Package parser turns raw command strings into Intent values. Deliberately
// simple: aliasing, article stripping, and one preposition split. No NLP.
package parser

import (
	"strings"

	"github.com/okenna/fablecore/types"
)

var directionExpansions = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
	"u":  "up",
	"d":  "down",
}

// Bare direction words are shortcuts for "go <direction>".
var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"northeast": true, "northwest": true, "southeast": true, "southwest": true,
	"up": true, "down": true,
}

var verbAliases = map[string]string{
	// Look / examine
	"l":       "look",
	"x":       "examine",
	"inspect": "examine",
	"check":   "examine",
	"study":   "examine",

	// Movement
	"walk": "go",
	"run":  "go",
	"move": "go",
	"head": "go",

	// Take / drop
	"get":     "take",
	"grab":    "take",
	"discard": "drop",

	// Attack
	"hit":    "attack",
	"strike": "attack",
	"fight":  "attack",
	"kill":   "attack",

	// Talk
	"ask":   "talk",
	"speak": "talk",
	"chat":  "talk",

	// Miscellaneous
	"i":   "inventory",
	"inv": "inventory",
	"z":   "wait",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"about": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts one line of input into an Intent. Verbs the parser does
// not know pass through unchanged; whether a verb means anything is the
// module catalog's business, not the parser's.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Bare "n", "south" and friends mean "go <direction>".
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Intent{Verb: "go", Object: dir}
		}
		if directionNames[words[0]] {
			return types.Intent{Verb: "go", Object: words[0]}
		}
	}

	words = expandMultiWordVerbs(words)

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])
	object, target := splitOnPreposition(rest)

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// expandMultiWordVerbs folds "look at", "pick up" and similar phrases into
// a single canonical verb.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look":
		if words[1] == "at" || words[1] == "in" {
			return append([]string{"examine"}, words[2:]...)
		}
	case "pick":
		if words[1] == "up" {
			return append([]string{"take"}, words[2:]...)
		}
	case "put":
		if words[1] == "down" {
			return append([]string{"drop"}, words[2:]...)
		}
	case "talk", "speak", "chat":
		if words[1] == "to" || words[1] == "with" {
			return append([]string{"talk"}, words[2:]...)
		}
	}

	return words
}

func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition uses the first preposition as the object/target
// boundary. No preposition means everything is the object.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), ""
}
