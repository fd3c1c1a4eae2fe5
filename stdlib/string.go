package stdlib

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lollipopkit/luacore/state"
	"github.com/lollipopkit/luacore/value"
)

// openString installs the string library under both the global
// `string` table and th.StringMeta's __index, so both string.upper(s)
// and s:upper() resolve to the same functions — grounded on the
// teacher's OpenStringLib (stdlib/lib_string.go), generalized from its
// fork's non-standard method names (.len/.rep/.split) to the real Lua
// string library surface, since SPEC_FULL.md targets stock Lua.
func openString(th *state.Thread) {
	lib := value.NewTable(0, 16)
	register(lib, "len", strLen())
	register(lib, "rep", strRep())
	register(lib, "reverse", strReverse())
	register(lib, "lower", strLower())
	register(lib, "upper", strUpper())
	register(lib, "sub", strSub())
	register(lib, "byte", strByte())
	register(lib, "char", strChar())
	register(lib, "format", strFormat())
	register(lib, "find", strFind())
	register(lib, "gsub", strGsub())

	th.Globals.Set("string", lib)

	meta := value.NewTable(0, 1)
	meta.Set("__index", lib)
	th.SetStringMeta(meta)
}

func posRelat(pos int64, strLen int) int {
	if pos >= 0 {
		return int(pos)
	}
	if -pos > int64(strLen) {
		return 0
	}
	return strLen + int(pos) + 1
}

func strLen() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(int64(len(checkString(c, 0))))
		return 1
	}
}

func strRep() value.GoFunction {
	return func(c value.CallContext) int {
		s := checkString(c, 0)
		n := checkInt(c, 1)
		sep := optString(c, 2, "")
		if n <= 0 {
			c.PushResult("")
			return 1
		}
		parts := make([]string, n)
		for i := range parts {
			parts[i] = s
		}
		c.PushResult(strings.Join(parts, sep))
		return 1
	}
}

func strReverse() value.GoFunction {
	return func(c value.CallContext) int {
		s := checkString(c, 0)
		b := []byte(s)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		c.PushResult(string(b))
		return 1
	}
}

func strLower() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(strings.ToLower(checkString(c, 0)))
		return 1
	}
}

func strUpper() value.GoFunction {
	return func(c value.CallContext) int {
		c.PushResult(strings.ToUpper(checkString(c, 0)))
		return 1
	}
}

func strSub() value.GoFunction {
	return func(c value.CallContext) int {
		s := checkString(c, 0)
		sLen := len(s)
		i := posRelat(checkInt(c, 1), sLen)
		j := posRelat(optInt(c, 2, -1), sLen)
		if i < 1 {
			i = 1
		}
		if j > sLen {
			j = sLen
		}
		if i <= j {
			c.PushResult(s[i-1 : j])
		} else {
			c.PushResult("")
		}
		return 1
	}
}

func strByte() value.GoFunction {
	return func(c value.CallContext) int {
		s := checkString(c, 0)
		sLen := len(s)
		i := posRelat(optInt(c, 1, 1), sLen)
		j := posRelat(optInt(c, 2, int64(i)), sLen)
		if i < 1 {
			i = 1
		}
		if j > sLen {
			j = sLen
		}
		if i > j {
			return 0
		}
		n := 0
		for k := i; k <= j; k++ {
			c.PushResult(int64(s[k-1]))
			n++
		}
		return n
	}
}

func strChar() value.GoFunction {
	return func(c value.CallContext) int {
		n := c.ArgCount()
		b := make([]byte, n)
		for i := 0; i < n; i++ {
			b[i] = byte(checkInt(c, i))
		}
		c.PushResult(string(b))
		return 1
	}
}

// strFormat implements string.format's printf-style subset, grounded
// on the teacher's strFormat/_fmtArg (stdlib/lib_basic.go).
func strFormat() value.GoFunction {
	return func(c value.CallContext) int {
		f := checkString(c, 0)
		var out strings.Builder
		argIdx := 1
		for i := 0; i < len(f); i++ {
			if f[i] != '%' {
				out.WriteByte(f[i])
				continue
			}
			start := i
			i++
			for i < len(f) && strings.ContainsRune("-+ #0123456789.", rune(f[i])) {
				i++
			}
			if i >= len(f) {
				out.WriteString(f[start:])
				break
			}
			verb := f[start : i+1]
			switch f[i] {
			case '%':
				out.WriteByte('%')
			case 'd', 'i', 'o', 'u', 'x', 'X', 'c':
				spec := verb
				if f[i] == 'i' || f[i] == 'u' {
					spec = verb[:len(verb)-1] + "d"
				}
				out.WriteString(fmt.Sprintf(spec, checkInt(c, argIdx)))
				argIdx++
			case 'f', 'F', 'g', 'G', 'e', 'E':
				out.WriteString(fmt.Sprintf(verb, checkNumber(c, argIdx)))
				argIdx++
			case 's':
				out.WriteString(fmt.Sprintf(verb, checkString(c, argIdx)))
				argIdx++
			case 'q':
				out.WriteString(strconv.Quote(checkString(c, argIdx)))
				argIdx++
			default:
				out.WriteString(verb)
			}
		}
		c.PushResult(out.String())
		return 1
	}
}

// strFind/strGsub back string.find/string.gsub with Go's RE2 engine
// rather than a hand-rolled Lua-pattern matcher — the same
// substitution the teacher makes for its standalone `re` library
// (stdlib/lib_re.go), applied here to the standard string library too
// since this implementation has no separate Lua-pattern engine.
func strFind() value.GoFunction {
	return func(c value.CallContext) int {
		s := checkString(c, 0)
		pat := checkString(c, 1)
		init := int(optInt(c, 2, 1))
		plain := c.ArgCount() > 3 && value.Truthy(c.Arg(3))
		if init < 1 {
			init = 1
		}
		if init > len(s)+1 {
			c.PushResult(nil)
			return 1
		}
		sub := s[init-1:]
		if plain {
			idx := strings.Index(sub, pat)
			if idx < 0 {
				c.PushResult(nil)
				return 1
			}
			c.PushResult(int64(init + idx))
			c.PushResult(int64(init + idx + len(pat) - 1))
			return 2
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			argError(c, 2, "malformed pattern")
		}
		loc := re.FindStringSubmatchIndex(sub)
		if loc == nil {
			c.PushResult(nil)
			return 1
		}
		c.PushResult(int64(init + loc[0]))
		c.PushResult(int64(init + loc[1] - 1))
		n := 1
		for g := 1; g*2 < len(loc); g++ {
			if loc[g*2] < 0 {
				c.PushResult(nil)
			} else {
				c.PushResult(sub[loc[g*2]:loc[g*2+1]])
			}
			n++
		}
		return n
	}
}

func strGsub() value.GoFunction {
	return func(c value.CallContext) int {
		s := checkString(c, 0)
		pat := checkString(c, 1)
		repl := checkString(c, 2)
		maxN := int(optInt(c, 3, -1))
		re, err := regexp.Compile(pat)
		if err != nil {
			argError(c, 2, "malformed pattern")
		}
		count := 0
		out := re.ReplaceAllStringFunc(s, func(m string) string {
			if maxN >= 0 && count >= maxN {
				return m
			}
			count++
			return repl
		})
		c.PushResult(out)
		c.PushResult(int64(count))
		return 2
	}
}
