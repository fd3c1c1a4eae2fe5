package stdlib

import (
	"regexp"

	glc "git.lolli.tech/lollipopkit/go_lru_cacher"
	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

// reCache memoizes compiled patterns, grounded on the teacher's
// reCacher/getExp (stdlib/lib_re.go) — regexp.Compile is the expensive
// part of every match, and scripts typically reuse a handful of
// patterns across many calls.
var reCache = glc.NewCacher(16)

// openRegex installs a small re.match/re.find/re.gsub surface backed
// directly by Go's RE2 engine, the same substitution the teacher's own
// `re` library makes (it never implemented Lua pattern matching
// either).
func openRegex(th *state.Thread, g *value.Table) {
	lib := value.NewTable(0, 3)
	register(lib, "match", reMatch())
	register(lib, "find", reFind())
	register(lib, "gsub", reGsub())
	g.Set("re", lib)
}

func compiledPattern(c value.CallContext, pattern string) *regexp.Regexp {
	if cached, ok := reCache.Get(pattern); ok {
		if re, ok := cached.(*regexp.Regexp); ok {
			return re
		}
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		argError(c, 1, "malformed pattern: "+err.Error())
		return nil
	}
	reCache.Set(pattern, re)
	return re
}

func reMatch() value.GoFunction {
	return func(c value.CallContext) int {
		pattern := checkString(c, 0)
		text := checkString(c, 1)
		c.PushResult(compiledPattern(c, pattern).MatchString(text))
		return 1
	}
}

func reFind() value.GoFunction {
	return func(c value.CallContext) int {
		pattern := checkString(c, 0)
		text := checkString(c, 1)
		groups := compiledPattern(c, pattern).FindStringSubmatch(text)
		if groups == nil {
			c.PushResult(nil)
			return 1
		}
		t := value.NewTable(len(groups), 0)
		for i, g := range groups {
			t.Set(int64(i+1), g)
		}
		c.PushResult(t)
		return 1
	}
}

func reGsub() value.GoFunction {
	return func(c value.CallContext) int {
		pattern := checkString(c, 0)
		text := checkString(c, 1)
		repl := checkString(c, 2)
		c.PushResult(compiledPattern(c, pattern).ReplaceAllString(text, repl))
		return 1
	}
}
