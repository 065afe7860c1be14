// Package cli is the plain-terminal shell: a prompt loop over Engine.Step
// plus slash-prefixed meta-commands for saves, state dumps, and trace
// output.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okenna/fablecore/engine"
	"github.com/okenna/fablecore/engine/save"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Engine:  eng,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: filepath.Join(home, ".fablecore", "saves"),
	}
}

// Run starts the game loop. It shows the intro, describes the starting
// place, then loops: prompt, input, step, output.
func (c *CLI) Run() {
	if c.Engine.Info.Intro != "" {
		c.printLine(c.Engine.Info.Intro)
		c.printLine("")
	}

	// Describe where the player starts.
	c.printTurn(c.Engine.Step("look"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		c.printTurn(c.Engine.Step(input))
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := c.Engine.Snapshot()
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	if err := c.Engine.Restore(sd); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", name, sd.Turn))

	// Show where the player resumed.
	c.printTurn(c.Engine.Step("look"))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  - Save game (default: quicksave)",
		"  /load [name]  - Load game (default: quicksave)",
		"  /quit         - Exit game",
		"  /help         - Show this help",
		"  /state        - Debug: dump current state",
		"  /trace        - Toggle phase trace output",
		"",
		"Shortcuts:",
		"  again (g)     - Repeat your last command",
		"",
	}
	for _, line := range help {
		c.printLine(line)
	}
	// Vocabulary comes from the loaded modules, so list it live rather
	// than hard-coding a verb table that content can extend.
	c.printLine("Verbs: " + strings.Join(c.Engine.Catalog.Verbs(), ", "))
}

func (c *CLI) cmdState() {
	e := c.Engine
	c.printSystem(fmt.Sprintf("Turn: %d", e.TurnCount))
	if player, ok := e.World.Get(e.Info.Player); ok {
		c.printSystem(fmt.Sprintf("Location: %s", player.StringProp("location", "nowhere")))
		var carried []string
		for _, item := range e.World.At(player.ID) {
			carried = append(carried, item.Name())
		}
		if len(carried) == 0 {
			c.printSystem("Carrying: nothing")
		} else {
			c.printSystem("Carrying: " + strings.Join(carried, ", "))
		}
	}
	c.printSystem(fmt.Sprintf("Entities: %d", e.World.Len()))
	c.printSystem(fmt.Sprintf("RNG position: %d", e.RNG.Position()))
}

func (c *CLI) printTurn(t engine.Turn) {
	for _, line := range t.Output {
		c.printLine(line)
	}
	if t.Err != nil {
		c.printSystem(fmt.Sprintf("Fault: %v", t.Err))
	}
	if c.Trace {
		for _, line := range t.Trace {
			c.printSystem("trace: " + line)
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
