package value

import "strconv"

// Table is Lua's single composite data structure: a hybrid of a dense
// array part (for small positive integer keys) and a hash part (for
// everything else), matching how the reference implementation avoids
// wasting memory on sparse integer-keyed tables.
type Table struct {
	arr  []any
	hash map[any]any

	keys    map[any]any // next()'s key -> next-key chain
	lastKey any
	changed bool

	Metatable *Table
}

func NewTable(nArr, nRec int) *Table {
	t := &Table{}
	if nArr > 0 {
		t.arr = make([]any, 0, nArr)
	}
	if nRec > 0 {
		t.hash = make(map[any]any, nRec)
	}
	return t
}

// Len implements the `#` border rule for the common case of a table
// used purely as an array: the length of the contiguous array part.
func (t *Table) Len() int64 {
	return int64(len(t.arr))
}

func (t *Table) Get(key any) any {
	key = normalizeKey(key)
	if idx, ok := key.(int64); ok && idx >= 1 && idx <= int64(len(t.arr)) {
		return t.arr[idx-1]
	}
	return t.hash[key]
}

// normalizeKey canonicalizes a float key that holds an exact integer
// value to int64, so t[1] and t[1.0] address the same slot.
func normalizeKey(key any) any {
	if f, ok := key.(float64); ok {
		if i, ok := FloatToInteger(f); ok {
			return i
		}
	}
	return key
}

func (t *Table) Set(key, val any) error {
	if key == nil {
		return errTableIndexNil
	}
	if f, ok := key.(float64); ok && f != f { // NaN
		return errTableIndexNaN
	}

	t.changed = true
	key = normalizeKey(key)
	if idx, ok := key.(int64); ok && idx >= 1 {
		arrLen := int64(len(t.arr))
		if idx <= arrLen {
			t.arr[idx-1] = val
			if idx == arrLen && val == nil {
				t.shrinkArray()
			}
			return nil
		}
		if idx == arrLen+1 {
			delete(t.hash, key)
			if val != nil {
				t.arr = append(t.arr, val)
				t.expandArray()
			}
			return nil
		}
	}
	if val != nil {
		if t.hash == nil {
			t.hash = make(map[any]any, 8)
		}
		t.hash[key] = val
	} else if t.hash != nil {
		delete(t.hash, key)
	}
	return nil
}

func (t *Table) shrinkArray() {
	for i := len(t.arr) - 1; i >= 0; i-- {
		if t.arr[i] == nil {
			t.arr = t.arr[:i]
		} else {
			break
		}
	}
}

func (t *Table) expandArray() {
	for idx := int64(len(t.arr)) + 1; ; idx++ {
		val, found := t.hash[idx]
		if !found {
			break
		}
		delete(t.hash, idx)
		t.arr = append(t.arr, val)
	}
}

// Next implements `next(t, key)`'s iteration contract: an unstable but
// exhaustive order over every non-nil key, built lazily and rebuilt
// whenever the table has been mutated since the last full scan.
func (t *Table) Next(key any) (nextKey, nextVal any, ok bool) {
	if t.keys == nil || (key == nil && t.changed) {
		t.buildKeyChain()
		t.changed = false
	}

	nk, found := t.keys[key]
	if !found {
		// key may have been given as a string that is really an array
		// index (e.g. stored as "1" by a caller) — try the int form too.
		if s, isStr := key.(string); isStr {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				nk, found = t.keys[i]
			}
		}
		if !found {
			return nil, nil, false
		}
	}
	if nk == nil {
		return nil, nil, true // iteration finished
	}
	return nk, t.Get(nk), true
}

func (t *Table) buildKeyChain() {
	t.keys = make(map[any]any)
	var prev any = nil
	for i, v := range t.arr {
		if v != nil {
			t.keys[prev] = int64(i + 1)
			prev = int64(i + 1)
		}
	}
	for k, v := range t.hash {
		if v != nil {
			t.keys[prev] = k
			prev = k
		}
	}
	t.keys[prev] = nil
	t.lastKey = prev
}

// Insert implements table.insert's shift-right-by-one.
func (t *Table) Insert(pos int64, val any) {
	n := t.Len()
	for i := n; i >= pos; i-- {
		t.Set(i+1, t.Get(i))
	}
	t.Set(pos, val)
}

// Remove implements table.remove's shift-left-by-one, returning the
// removed value.
func (t *Table) Remove(pos int64) any {
	n := t.Len()
	if n == 0 {
		return nil
	}
	val := t.Get(pos)
	for i := pos; i < n; i++ {
		t.Set(i, t.Get(i+1))
	}
	t.Set(n, nil)
	return val
}
