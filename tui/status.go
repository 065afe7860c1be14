package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// displayName derives a readable name from an entity ID for entities that
// carry no name prop. "great_hall" becomes "Great Hall".
func displayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// current place, its exits, what the player carries, and the turn count.
func (m Model) renderStatusBar() string {
	e := m.engine

	placeName := "Nowhere"
	var dirs []string
	var carried []string
	if player, ok := e.World.Get(e.Info.Player); ok {
		if place, ok := e.World.Get(player.StringProp("location", "")); ok {
			placeName = place.StringProp("name", displayName(place.ID))
			dirs = place.Exits()
		}
		for _, item := range e.World.At(player.ID) {
			carried = append(carried, item.Name())
		}
	}

	left := fmt.Sprintf(" %s | Exits: %s", placeName, strings.Join(dirs, ","))
	right := fmt.Sprintf("T:%d ", e.TurnCount)

	// Show carried item names if they fit, otherwise just the count.
	if len(carried) > 0 {
		candidate := fmt.Sprintf("Inv: %s | T:%d ", strings.Join(carried, ", "), e.TurnCount)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", len(carried), e.TurnCount)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
