package gc

import glc "git.lolli.tech/lollipopkit/go_lru_cacher"

// Interner canonicalizes short Lua strings behind a bounded LRU so
// that repeated identical string literals/keys (table field names,
// short constants) share one backing Go string and so repeated
// equality checks in hot loops degrade to a cache hit rather than a
// full byte compare, mirroring how the teacher's stdlib caches
// compiled artifacts (lib_re.go's regex cache, lib_json.go's
// compiled-path cache) behind the same library.
type Interner struct {
	cache *glc.Cacher
}

func NewInterner(capacity int) *Interner {
	return &Interner{cache: glc.NewCacher(capacity)}
}

// Intern returns the canonical copy of s, registering s as canonical
// the first time it's seen.
func (in *Interner) Intern(s string) string {
	if v, ok := in.cache.Get(s); ok {
		if cs, ok := v.(string); ok {
			return cs
		}
	}
	in.cache.Set(s, s)
	return s
}
