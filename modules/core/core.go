// Package core registers the engine's default capability modules: the
// being/portable/visible behaviors entities attach, the standard verb
// vocabulary, and the upkeep turn phase. Importing the package is enough;
// registration happens at init.
package core

import "github.com/okenna/fablecore/engine/behavior"

func init() {
	behavior.Register(behavior.TierCore, beingModule())
	behavior.Register(behavior.TierCore, portableModule())
	behavior.Register(behavior.TierCore, visibleModule())
	behavior.Register(behavior.TierCore, actionsModule())
	behavior.Register(behavior.TierCore, scheduleModule())
}
