package script

import (
	"fmt"
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/okenna/fablecore/engine/behavior"
	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/engine/world"
	"github.com/okenna/fablecore/types"
)

// Host runs all Lua for one game: content modules loaded at startup and
// handler overrides resolved from entity properties. It owns a single
// persistent interpreter state, so globals set by one chunk are visible to
// every later chunk. Game content is trusted; nothing is sandboxed except
// math.random, which is removed so that scripts roll through the world
// accessor and stay replay-deterministic.
type Host struct {
	L    *lua.LState
	root string
	log  *slog.Logger

	collected   []rawModule
	currentFile string

	loaded  map[string]bool
	hatches map[string]hatchEntry
}

// NewHost creates a script host rooted at the game directory. Relative
// script references in entity properties resolve against root.
func NewHost(root string, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	h := &Host{
		L:       lua.NewState(),
		root:    root,
		log:     log,
		loaded:  map[string]bool{},
		hatches: map[string]hatchEntry{},
	}
	h.registerEntityType()
	h.registerAccessorType()
	h.registerGameType()
	h.registerHelpers()
	h.registerModuleConstructor()
	return h
}

// Close releases the interpreter state.
func (h *Host) Close() {
	h.L.Close()
}

// registerHelpers installs the result constructors scripts use as return
// values, and strips math.random in favor of acc:roll.
func (h *Host) registerHelpers() {
	L := h.L
	L.SetGlobal("Allow", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("allow", lua.LTrue)
		tbl.RawSetString("feedback", lua.LString(L.OptString(1, "")))
		L.Push(tbl)
		return 1
	}))
	L.SetGlobal("Deny", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("allow", lua.LFalse)
		tbl.RawSetString("feedback", lua.LString(L.OptString(1, "")))
		L.Push(tbl)
		return 1
	}))
	L.SetGlobal("Ignore", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("ignore", lua.LTrue)
		L.Push(tbl)
		return 1
	}))
	if math, ok := L.GetGlobal("math").(*lua.LTable); ok {
		math.RawSetString("random", lua.LNil)
		math.RawSetString("randomseed", lua.LNil)
	}
}

// --- entity userdata ---

const entityTypeName = "entity"

func (h *Host) registerEntityType() {
	mt := h.L.NewTypeMetatable(entityTypeName)
	h.L.SetField(mt, "__index", h.L.SetFuncs(h.L.NewTable(), entityMethods))
}

func (h *Host) entityValue(e *world.Entity) lua.LValue {
	if e == nil {
		return lua.LNil
	}
	ud := h.L.NewUserData()
	ud.Value = e
	h.L.SetMetatable(ud, h.L.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *lua.LState) *world.Entity {
	ud := L.CheckUserData(1)
	if e, ok := ud.Value.(*world.Entity); ok {
		return e
	}
	L.ArgError(1, "entity expected")
	return nil
}

var entityMethods = map[string]lua.LGFunction{
	"id": func(L *lua.LState) int {
		L.Push(lua.LString(checkEntity(L).ID))
		return 1
	},
	"name": func(L *lua.LState) int {
		L.Push(lua.LString(checkEntity(L).Name()))
		return 1
	},
	"get": func(L *lua.LState) int {
		e := checkEntity(L)
		key := L.CheckString(2)
		v, ok := e.Prop(key)
		if !ok {
			L.Push(L.Get(3))
			return 1
		}
		L.Push(toLuaValue(L, v))
		return 1
	},
	"set": func(L *lua.LState) int {
		e := checkEntity(L)
		key := L.CheckString(2)
		e.SetProp(key, toGoValue(L.Get(3)))
		return 0
	},
	"has": func(L *lua.LState) int {
		e := checkEntity(L)
		_, ok := e.Prop(L.CheckString(2))
		L.Push(lua.LBool(ok))
		return 1
	},
	"behaves": func(L *lua.LState) int {
		e := checkEntity(L)
		L.Push(lua.LBool(e.HasBehavior(L.CheckString(2))))
		return 1
	},
}

// --- accessor userdata ---

const accessorTypeName = "accessor"

func (h *Host) registerAccessorType() {
	mt := h.L.NewTypeMetatable(accessorTypeName)
	h.L.SetField(mt, "__index", h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"entity":   h.accEntity,
		"roll":     h.accRoll,
		"weighted": h.accWeighted,
		"at":       h.accAt,
	}))
}

func (h *Host) accessorValue(acc *world.Accessor) lua.LValue {
	if acc == nil {
		return lua.LNil
	}
	ud := h.L.NewUserData()
	ud.Value = acc
	h.L.SetMetatable(ud, h.L.GetTypeMetatable(accessorTypeName))
	return ud
}

func checkAccessor(L *lua.LState) *world.Accessor {
	ud := L.CheckUserData(1)
	if a, ok := ud.Value.(*world.Accessor); ok {
		return a
	}
	L.ArgError(1, "accessor expected")
	return nil
}

// checkWeights reads an array-style table of weights. An empty table or a
// non-positive total cannot be drawn from; that is an authoring error
// worth a script error rather than a crash in the RNG.
func checkWeights(L *lua.LState, n int) []int {
	tbl := L.CheckTable(n)
	total := 0
	weights := make([]int, 0, tbl.MaxN())
	for i := 1; i <= tbl.MaxN(); i++ {
		w := 0
		if num, ok := tbl.RawGetInt(i).(lua.LNumber); ok {
			w = int(num)
		}
		if w < 0 {
			L.ArgError(n, "weights must not be negative")
		}
		weights = append(weights, w)
		total += w
	}
	if total <= 0 {
		L.ArgError(n, "weights must have a positive total")
	}
	return weights
}

func (h *Host) accEntity(L *lua.LState) int {
	acc := checkAccessor(L)
	e, _ := acc.Entity(L.CheckString(2))
	L.Push(h.entityValue(e))
	return 1
}

func (h *Host) accRoll(L *lua.LState) int {
	acc := checkAccessor(L)
	L.Push(lua.LNumber(acc.Roll(L.CheckInt(2))))
	return 1
}

// accWeighted returns a 1-based pick so scripts can index the option
// table they drew from directly.
func (h *Host) accWeighted(L *lua.LState) int {
	acc := checkAccessor(L)
	L.Push(lua.LNumber(acc.Weighted(checkWeights(L, 2)) + 1))
	return 1
}

func (h *Host) accAt(L *lua.LState) int {
	acc := checkAccessor(L)
	tbl := L.NewTable()
	for _, e := range acc.World.At(L.CheckString(2)) {
		tbl.Append(h.entityValue(e))
	}
	L.Push(tbl)
	return 1
}

// --- game userdata (verb handlers) ---

// gameScope is the surface a scripted verb sees: the accessor plus the
// dispatcher, so verbs can fire events the same way native commands do.
// A fatal dispatch error is parked on the scope and re-raised in Go after
// the protected call unwinds, so typed errors survive the Lua boundary.
type gameScope struct {
	inv   behavior.Invoker
	acc   *world.Accessor
	fatal error
}

const gameTypeName = "game"

func (h *Host) registerGameType() {
	mt := h.L.NewTypeMetatable(gameTypeName)
	h.L.SetField(mt, "__index", h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"entity":        h.gameEntity,
		"roll":          h.gameRoll,
		"weighted":      h.gameWeighted,
		"invoke":        h.gameInvoke,
		"invoke_global": h.gameInvokeGlobal,
	}))
}

func (h *Host) gameValue(g *gameScope) lua.LValue {
	ud := h.L.NewUserData()
	ud.Value = g
	h.L.SetMetatable(ud, h.L.GetTypeMetatable(gameTypeName))
	return ud
}

func checkGame(L *lua.LState) *gameScope {
	ud := L.CheckUserData(1)
	if g, ok := ud.Value.(*gameScope); ok {
		return g
	}
	L.ArgError(1, "game expected")
	return nil
}

func (h *Host) gameEntity(L *lua.LState) int {
	g := checkGame(L)
	e, _ := g.acc.Entity(L.CheckString(2))
	L.Push(h.entityValue(e))
	return 1
}

func (h *Host) gameRoll(L *lua.LState) int {
	g := checkGame(L)
	L.Push(lua.LNumber(g.acc.Roll(L.CheckInt(2))))
	return 1
}

func (h *Host) gameWeighted(L *lua.LState) int {
	g := checkGame(L)
	L.Push(lua.LNumber(g.acc.Weighted(checkWeights(L, 2)) + 1))
	return 1
}

func (h *Host) gameInvoke(L *lua.LState) int {
	g := checkGame(L)
	id := L.CheckString(2)
	eventName := L.CheckString(3)
	e, ok := g.acc.Entity(id)
	if !ok {
		L.RaiseError("invoke: unknown entity %q", id)
		return 0
	}
	ctx := &event.Context{Actor: id}
	if data, ok := L.Get(4).(*lua.LTable); ok {
		ctx.Data = tableToAnyMap(data)
	}
	r, err := g.inv.Invoke(e, eventName, g.acc, ctx)
	if err != nil {
		g.fatal = err
		L.RaiseError("invoke: %s", err.Error())
		return 0
	}
	L.Push(resultToLua(L, r))
	return 1
}

func (h *Host) gameInvokeGlobal(L *lua.LState) int {
	g := checkGame(L)
	eventName := L.CheckString(2)
	ctx := &event.Context{}
	if data, ok := L.Get(3).(*lua.LTable); ok {
		ctx.Data = tableToAnyMap(data)
	}
	r := g.inv.InvokeGlobal(eventName, g.acc, ctx)
	L.Push(resultToLua(L, r))
	return 1
}

// --- calling into Lua ---

// callHandler runs a Lua event handler. self is nil for global hooks. A
// runtime error in the script is logged and converted to a denial so one
// bad handler cannot take down the turn.
func (h *Host) callHandler(fn *lua.LFunction, eventName string, self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
	err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		h.entityValue(self), h.accessorValue(acc), ctxToLua(h.L, ctx))
	if err != nil {
		h.log.Error("script handler failed", "event", eventName, "err", err)
		return event.Deny(fmt.Sprintf("Something goes wrong in the %s handler.", eventName))
	}
	ret := h.L.Get(-1)
	h.L.Pop(1)
	return resultFromLua(ret)
}

// wrapHandler adapts a Lua function into a native handler.
func (h *Host) wrapHandler(eventName string, fn *lua.LFunction) behavior.HandlerFunc {
	return func(self *world.Entity, acc *world.Accessor, ctx *event.Context) event.Result {
		return h.callHandler(fn, eventName, self, acc, ctx)
	}
}

// wrapCommand adapts a Lua function into a native command. Fatal dispatch
// errors raised through game:invoke propagate; plain script errors are
// logged and softened to a denial.
func (h *Host) wrapCommand(modPath, verb string, fn *lua.LFunction) behavior.CommandFunc {
	return func(inv behavior.Invoker, acc *world.Accessor, intent types.Intent) (event.Result, error) {
		g := &gameScope{inv: inv, acc: acc}
		err := h.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
			h.gameValue(g), intentToLua(h.L, intent))
		if err != nil {
			if g.fatal != nil {
				return event.NoHandler, g.fatal
			}
			h.log.Error("script verb failed", "module", modPath, "verb", verb, "err", err)
			return event.Deny(fmt.Sprintf("The %s command misfires.", verb)), nil
		}
		ret := h.L.Get(-1)
		h.L.Pop(1)
		return resultFromLua(ret), nil
	}
}
