package luaenv

import lua "github.com/yuin/gopher-lua"

// GoToLua converts a Go value (string, bool, numeric kinds, map[string]any,
// []any, or nil) into the corresponding lua.LValue. Unrecognized types are
// stored as opaque userdata so round-tripping through the namespace never
// panics, even for values the harness has not anticipated.
func GoToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, GoToLua(L, item))
		}
		return t
	case []any:
		t := L.NewTable()
		for _, item := range val {
			t.Append(GoToLua(L, item))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, item := range val {
			t.Append(lua.LString(item))
		}
		return t
	default:
		ud := L.NewUserData()
		ud.Value = val
		return ud
	}
}

// LuaToGo converts a lua.LValue back into a plain Go value: strings,
// float64 numbers, bools, nil, map[string]any for tables with any non-array
// key, []any for tables that are a dense 1..n array, or the wrapped value
// for userdata.
func LuaToGo(v lua.LValue) any {
	switch val := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		return tableToGo(val)
	case *lua.LUserData:
		return val.Value
	default:
		return v.String()
	}
}

func tableToGo(t *lua.LTable) any {
	n := t.Len()
	if n > 0 && isDenseArray(t, n) {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = LuaToGo(t.RawGetInt(i))
		}
		return arr
	}
	m := make(map[string]any)
	t.ForEach(func(k, val lua.LValue) {
		m[k.String()] = LuaToGo(val)
	})
	return m
}

func isDenseArray(t *lua.LTable, n int) bool {
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })
	return count == n
}
