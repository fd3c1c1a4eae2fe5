package stdlib

import (
	glc "git.lolli.tech/lollipopkit/go_lru_cacher"
	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
	"github.com/tidwall/gjson"
)

// jsonCache memoizes gjson.Parse per source document, exactly as the
// teacher's jsonGet (stdlib/lib_json.go) does with its own gjsonCacher,
// since re-parsing the same JSON blob on every json.get call would
// dominate cost for scripts that query one document repeatedly.
var jsonCache = glc.NewCacher(16)

// openJSON installs json.get(source, path), a read-only query over a
// JSON document via gjson's path syntax — this is the dependency the
// rest of the stdlib package exists partly to give a home to, since
// nothing else in this implementation needs a JSON path query engine.
func openJSON(th *state.Thread, g *value.Table) {
	lib := value.NewTable(0, 2)
	register(lib, "get", jsonGet())
	register(lib, "valid", jsonValid())
	g.Set("json", lib)
}

func parsedJSON(source string) gjson.Result {
	if cached, ok := jsonCache.Get(source); ok {
		if r, ok := cached.(gjson.Result); ok {
			return r
		}
	}
	r := gjson.Parse(source)
	jsonCache.Set(source, r)
	return r
}

func jsonGet() value.GoFunction {
	return func(c value.CallContext) int {
		source := checkString(c, 0)
		path := checkString(c, 1)
		result := parsedJSON(source).Get(path)
		if !result.Exists() {
			c.PushResult(false)
			c.PushResult(nil)
			return 2
		}
		c.PushResult(true)
		c.PushResult(gjsonValueToLua(result))
		return 2
	}
}

func jsonValid() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(gjson.Valid(checkString(c, 0)))
		return 1
	}
}

// gjsonValueToLua converts a gjson.Result to the nearest Lua value,
// recursing into arrays/objects so json.get can hand back whole
// substructures, not just scalars.
func gjsonValueToLua(r gjson.Result) any {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		if r.Num == float64(int64(r.Num)) {
			return int64(r.Num)
		}
		return r.Num
	case gjson.String:
		return r.Str
	default:
		if r.IsArray() {
			t := value.NewTable(0, 0)
			i := int64(1)
			r.ForEach(func(_, v gjson.Result) bool {
				t.Set(i, gjsonValueToLua(v))
				i++
				return true
			})
			return t
		}
		if r.IsObject() {
			t := value.NewTable(0, 0)
			r.ForEach(func(k, v gjson.Result) bool {
				t.Set(k.String(), gjsonValueToLua(v))
				return true
			})
			return t
		}
		return r.String()
	}
}
