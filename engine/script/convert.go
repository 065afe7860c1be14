package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/okenna/fablecore/engine/event"
	"github.com/okenna/fablecore/types"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		// Otherwise treat as map.
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// toLuaValue converts a Go value to a Lua value recursively. Values the
// property bags and context data can hold all round-trip; anything else
// becomes nil.
func toLuaValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(toLuaValue(L, item))
		}
		return tbl
	case []string:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(lua.LString(item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLuaValue(L, item))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// tableToAnyMap converts a Lua table to a map[string]any.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	if tbl == nil {
		return nil
	}
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			m[string(ks)] = toGoValue(v)
		}
	})
	return m
}

// tableToStringList converts an array-style Lua table to a string slice.
func tableToStringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// resultFromLua interprets a handler's return value. nil leaves the event
// ignored; a bare string is shorthand for allowing with feedback; a table
// carries the full result shape the Allow/Deny/Ignore helpers produce.
func resultFromLua(v lua.LValue) event.Result {
	switch val := v.(type) {
	case *lua.LNilType:
		return event.IgnoreEvent
	case lua.LBool:
		return event.Result{Allow: bool(val)}
	case lua.LString:
		return event.Allow(string(val))
	case *lua.LTable:
		if getBool(val, "ignore", false) {
			return event.IgnoreEvent
		}
		r := event.Result{
			Allow:    getBool(val, "allow", true),
			Feedback: getString(val, "feedback"),
		}
		if ctx := getTable(val, "context"); ctx != nil {
			r.Context = tableToAnyMap(ctx)
		}
		if hints := getTable(val, "hints"); hints != nil {
			r.Hints = tableToStringList(hints)
		}
		return r
	default:
		return event.IgnoreEvent
	}
}

// resultToLua converts a dispatch result into the table shape scripts read.
func resultToLua(L *lua.LState, r event.Result) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("allow", lua.LBool(r.Allow))
	tbl.RawSetString("feedback", lua.LString(r.Feedback))
	tbl.RawSetString("ignored", lua.LBool(r.Ignored()))
	if len(r.Context) > 0 {
		tbl.RawSetString("context", toLuaValue(L, r.Context))
	}
	if len(r.Hints) > 0 {
		tbl.RawSetString("hints", toLuaValue(L, r.Hints))
	}
	return tbl
}

// ctxToLua builds the context table handlers receive.
func ctxToLua(L *lua.LState, ctx *event.Context) *lua.LTable {
	tbl := L.NewTable()
	if ctx == nil {
		return tbl
	}
	tbl.RawSetString("verb", lua.LString(ctx.Verb))
	tbl.RawSetString("actor", lua.LString(ctx.Actor))
	tbl.RawSetString("object", lua.LString(ctx.Object))
	tbl.RawSetString("target", lua.LString(ctx.Target))
	data := L.NewTable()
	for k, v := range ctx.Data {
		data.RawSetString(k, toLuaValue(L, v))
	}
	tbl.RawSetString("data", data)
	return tbl
}

// intentToLua builds the intent table verb handlers receive.
func intentToLua(L *lua.LState, intent types.Intent) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("verb", lua.LString(intent.Verb))
	tbl.RawSetString("object", lua.LString(intent.Object))
	tbl.RawSetString("target", lua.LString(intent.Target))
	tbl.RawSetString("actor", lua.LString(intent.Actor))
	tbl.RawSetString("object_id", lua.LString(intent.ObjectID))
	tbl.RawSetString("target_id", lua.LString(intent.TargetID))
	return tbl
}
