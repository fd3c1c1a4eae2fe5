package state

import "testing"

func run(t *testing.T, source string) []any {
	t.Helper()
	th := New()
	results, err := th.Execute(source, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return results
}

func TestExecuteReturnsTopLevelValues(t *testing.T) {
	results := run(t, "return 1, 2, 3")
	if len(results) != 3 {
		t.Fatalf("want 3 results, got %d (%v)", len(results), results)
	}
	for i, want := range []int64{1, 2, 3} {
		if got, ok := results[i].(int64); !ok || got != want {
			t.Fatalf("result %d: want %d, got %v", i, want, results[i])
		}
	}
}

func TestExecuteArithmeticAndLocals(t *testing.T) {
	results := run(t, "local a = 2 + 3 * 4\nreturn a")
	if len(results) != 1 || results[0].(int64) != 14 {
		t.Fatalf("want 14, got %v", results)
	}
}

func TestExecuteTableIndexAndNewIndex(t *testing.T) {
	results := run(t, `
		local t = {}
		t.x = 10
		t["y"] = 20
		return t.x + t.y
	`)
	if len(results) != 1 || results[0].(int64) != 30 {
		t.Fatalf("want 30, got %v", results)
	}
}

func TestExecuteIndexMissingKeyReturnsNil(t *testing.T) {
	th := New()
	results, err := th.Execute(`
		local derived = {}
		return derived.greet
	`, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0] != nil {
		t.Fatalf("want nil, got %v", results)
	}
}

func TestExecuteCompileError(t *testing.T) {
	th := New()
	if _, err := th.Execute("local x = ", "broken"); err == nil {
		t.Fatalf("expected a compile error")
	}
}

func TestExecuteClosureCapturesUpvalue(t *testing.T) {
	results := run(t, `
		local function counter()
			local n = 0
			return function()
				n = n + 1
				return n
			end
		end
		local inc = counter()
		inc()
		inc()
		return inc()
	`)
	if len(results) != 1 || results[0].(int64) != 3 {
		t.Fatalf("want 3, got %v", results)
	}
}

func TestExecuteRuntimeErrorIsCaught(t *testing.T) {
	th := New()
	_, err := th.Execute(`
		local t = nil
		return t.x
	`, "test")
	if err == nil {
		t.Fatalf("expected a runtime error indexing nil")
	}
}
