package luaenv

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/nexusharness/loom/internal/search"
)

const tavilyClientTypeName = "TavilyClient"

// registerTavilyClient binds the bootstrap `TavilyClient(api_key)`
// constructor spec.md §6 names: synthesized Lua code may call
// `local c = TavilyClient(key)` then `c:search(query)` to reach the
// external search-API collaborator.
func registerTavilyClient(L *lua.LState) {
	mt := L.NewTypeMetatable(tavilyClientTypeName)
	L.SetField(mt, "__index", L.NewTable())
	methods := L.GetField(mt, "__index").(*lua.LTable)
	L.SetField(methods, "search", L.NewFunction(tavilyClientSearch))

	L.SetGlobal(tavilyClientTypeName, L.NewFunction(func(L *lua.LState) int {
		apiKey := ""
		if L.GetTop() >= 1 {
			apiKey = L.CheckString(1)
		}
		ud := L.NewUserData()
		ud.Value = search.New(apiKey)
		ud.Metatable = mt
		L.Push(ud)
		return 1
	}))
}

func tavilyClientSearch(L *lua.LState) int {
	ud := L.CheckUserData(1)
	client, ok := ud.Value.(*search.Client)
	if !ok {
		L.ArgError(1, "expected TavilyClient")
		return 0
	}
	query := L.CheckString(2)

	result, err := client.Search(context.Background(), query)
	if err != nil {
		L.RaiseError("TavilyClient.search: %v", err)
		return 0
	}
	L.Push(lua.LString(result))
	return 1
}
