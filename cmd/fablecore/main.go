// Fablecore is a deterministic, module-driven engine for text adventures.
// Usage: fablecore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] [--debug] <game_directory>
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/okenna/fablecore/cli"
	"github.com/okenna/fablecore/engine"
	"github.com/okenna/fablecore/loader"
	"github.com/okenna/fablecore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	trace := false
	debug := false
	seedSet := false
	var seed int64
	var gameDir string
	var scriptFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("fablecore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--debug":
			debug = true
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires a number\n")
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed: %v\n", err)
				os.Exit(1)
			}
			seed = n
			seedSet = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		default:
			if gameDir == "" {
				gameDir = args[i]
			}
		}
	}

	if gameDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: fablecore [--version] [--plain] [--script <file>] [--trace] [--seed <n>] [--debug] <game_directory>\n")
		os.Exit(1)
	}

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	game, err := loader.Load(gameDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}
	defer game.Close()
	for _, w := range game.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if seedSet {
		game.Seed = seed
	}
	eng := engine.New(engine.Config{
		Info:     game.Info,
		Catalog:  game.Catalog,
		Schedule: game.Schedule,
		World:    game.World,
		Scripts:  game.Scripts,
		Seed:     game.Seed,
		Logger:   log,
	})

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		fmt.Println(banner(game) + "\n")
		c := cli.New(eng)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use the plain CLI if --plain is set or stdout is not a terminal.
	if plain || !isTerminal() {
		fmt.Println(banner(game) + "\n")
		c := cli.New(eng)
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(eng); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// banner formats the title line, leaving out metadata a game did not set.
func banner(g *loader.Game) string {
	b := g.Info.Title
	if g.Info.Version != "" {
		b += " v" + g.Info.Version
	}
	if g.Info.Author != "" {
		b += " by " + g.Info.Author
	}
	return b
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
