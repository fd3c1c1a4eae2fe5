package stdlib

import (
	"testing"

	"github.com/lollipopkit/luacore/state"
)

func run(t *testing.T, source string) []any {
	t.Helper()
	th := state.New()
	Open(th)
	results, err := th.Execute(source, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return results
}

func TestBasePrintTypeToString(t *testing.T) {
	results := run(t, `return type(1), type("s"), type(nil), type({}), type(print)`)
	want := []string{"number", "string", "nil", "table", "function"}
	for i, w := range want {
		if results[i] != w {
			t.Fatalf("type %d: want %q, got %v", i, w, results[i])
		}
	}
}

func TestBaseToNumber(t *testing.T) {
	results := run(t, `return tonumber("42"), tonumber("3.5"), tonumber("ff", 16), tonumber("nope")`)
	if results[0].(int64) != 42 {
		t.Fatalf("want 42, got %v", results[0])
	}
	if results[1].(float64) != 3.5 {
		t.Fatalf("want 3.5, got %v", results[1])
	}
	if results[2].(int64) != 255 {
		t.Fatalf("want 255, got %v", results[2])
	}
	if results[3] != nil {
		t.Fatalf("want nil, got %v", results[3])
	}
}

func TestBasePairsAndIPairs(t *testing.T) {
	results := run(t, `
		local sum = 0
		for i, v in ipairs({10, 20, 30}) do
			sum = sum + i * v
		end
		local count = 0
		for k, v in pairs({a = 1, b = 2, c = 3}) do
			count = count + 1
		end
		return sum, count
	`)
	if results[0].(int64) != 1*10+2*20+3*30 {
		t.Fatalf("want %d, got %v", 1*10+2*20+3*30, results[0])
	}
	if results[1].(int64) != 3 {
		t.Fatalf("want 3, got %v", results[1])
	}
}

func TestBasePCallAndError(t *testing.T) {
	results := run(t, `
		local ok, msg = pcall(function() error("boom") end)
		return ok, msg
	`)
	if results[0] != false {
		t.Fatalf("want pcall to report failure, got %v", results[0])
	}
	if s, ok := results[1].(string); !ok || s == "" {
		t.Fatalf("want a non-empty error message, got %v", results[1])
	}
}

func TestBaseSetMetatableAndIndex(t *testing.T) {
	results := run(t, `
		local base = {greet = "hi"}
		local derived = setmetatable({}, {__index = base})
		return derived.greet, getmetatable(derived) ~= nil
	`)
	if results[0] != "hi" {
		t.Fatalf("want %q, got %v", "hi", results[0])
	}
	if results[1] != true {
		t.Fatalf("want getmetatable to report a metatable, got %v", results[1])
	}
}

func TestStringLibrarySurface(t *testing.T) {
	results := run(t, `
		return string.upper("abc"), string.sub("hello world", 1, 5),
			("abc"):len(), string.rep("ab", 3, "-")
	`)
	if results[0] != "ABC" {
		t.Fatalf("want ABC, got %v", results[0])
	}
	if results[1] != "hello" {
		t.Fatalf("want hello, got %v", results[1])
	}
	if results[2].(int64) != 3 {
		t.Fatalf("want 3, got %v", results[2])
	}
	if results[3] != "ab-ab-ab" {
		t.Fatalf("want ab-ab-ab, got %v", results[3])
	}
}

func TestStringFormat(t *testing.T) {
	results := run(t, `return string.format("%d-%s-%.2f", 5, "x", 1.5)`)
	if results[0] != "5-x-1.50" {
		t.Fatalf("want 5-x-1.50, got %v", results[0])
	}
}

func TestMathLibrarySurface(t *testing.T) {
	results := run(t, `
		return math.floor(3.7), math.ceil(3.2), math.max(1, 5, 3), math.min(1, 5, 3),
			math.type(1), math.type(1.0)
	`)
	if results[0].(int64) != 3 {
		t.Fatalf("want 3, got %v", results[0])
	}
	if results[1].(int64) != 4 {
		t.Fatalf("want 4, got %v", results[1])
	}
	if results[2].(int64) != 5 {
		t.Fatalf("want 5, got %v", results[2])
	}
	if results[3].(int64) != 1 {
		t.Fatalf("want 1, got %v", results[3])
	}
	if results[4] != "integer" || results[5] != "float" {
		t.Fatalf("want integer/float, got %v/%v", results[4], results[5])
	}
}

func TestTableLibrarySurface(t *testing.T) {
	results := run(t, `
		local t = {1, 2, 3}
		table.insert(t, 4)
		table.insert(t, 1, 0)
		local removed = table.remove(t)
		local concatenated = table.concat(t, ",")
		return concatenated, removed
	`)
	if results[0] != "0,1,2,3" {
		t.Fatalf("want 0,1,2,3, got %v", results[0])
	}
	if results[1].(int64) != 4 {
		t.Fatalf("want 4, got %v", results[1])
	}
}

func TestTableSortWithComparator(t *testing.T) {
	results := run(t, `
		local t = {3, 1, 2}
		table.sort(t, function(a, b) return a > b end)
		return t[1], t[2], t[3]
	`)
	if results[0].(int64) != 3 || results[1].(int64) != 2 || results[2].(int64) != 1 {
		t.Fatalf("want 3,2,1 descending, got %v", results)
	}
}

func TestCoroutineResumeYield(t *testing.T) {
	results := run(t, `
		local co = coroutine.create(function(a)
			local b = coroutine.yield(a + 1)
			return b + 1
		end)
		local ok1, v1 = coroutine.resume(co, 10)
		local ok2, v2 = coroutine.resume(co, 100)
		return ok1, v1, ok2, v2, coroutine.status(co)
	`)
	if results[0] != true || results[1].(int64) != 11 {
		t.Fatalf("first resume: want true,11 got %v,%v", results[0], results[1])
	}
	if results[2] != true || results[3].(int64) != 101 {
		t.Fatalf("second resume: want true,101 got %v,%v", results[2], results[3])
	}
	if results[4] != "dead" {
		t.Fatalf("want dead, got %v", results[4])
	}
}

func TestCoroutineWrapPropagatesErrors(t *testing.T) {
	results := run(t, `
		local f = coroutine.wrap(function() error("nope") end)
		local ok, msg = pcall(f)
		return ok, msg
	`)
	if results[0] != false {
		t.Fatalf("want pcall(f) to fail, got %v", results[0])
	}
}

func TestJSONGetAndValid(t *testing.T) {
	results := run(t, `
		local ok, v = json.get('{"a": {"b": 2}}', "a.b")
		local valid = json.valid('{"a":1}')
		local invalid = json.valid('{not json}')
		return ok, v, valid, invalid
	`)
	if results[0] != true || results[1].(int64) != 2 {
		t.Fatalf("want true,2 got %v,%v", results[0], results[1])
	}
	if results[2] != true || results[3] != false {
		t.Fatalf("want valid=true invalid=false, got %v,%v", results[2], results[3])
	}
}

func TestRegexMatchFindGsub(t *testing.T) {
	results := run(t, `
		return re.match("^[0-9]+$", "12345"),
			re.gsub("[0-9]+", "hello 123 world", "N")
	`)
	if results[0] != true {
		t.Fatalf("want true, got %v", results[0])
	}
	if results[1] != "hello N world" {
		t.Fatalf("want 'hello N world', got %v", results[1])
	}
}
