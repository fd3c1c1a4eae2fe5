package gc

import "testing"

type fakeObj struct {
	refs []*fakeObj
}

func (o *fakeObj) Traverse(visit func(Object)) {
	for _, r := range o.refs {
		visit(r)
	}
}

func TestReferenceCountingFreesImmediately(t *testing.T) {
	c := NewCollector(ReferenceCounting)
	freed := false
	a := &fakeObj{}
	c.Track(a, func() { freed = true })
	c.Retain(a)
	c.Release(a)
	if !freed {
		t.Fatal("expected object to be freed once refcount hit zero")
	}
}

func TestHybridTracingReclaimsCycle(t *testing.T) {
	c := NewCollector(HybridRCTracing)
	c.SetCycleThreshold(0)

	a := &fakeObj{}
	b := &fakeObj{}
	a.refs = []*fakeObj{b}
	b.refs = []*fakeObj{a}

	aFreed, bFreed := false, false
	c.Track(a, func() { aFreed = true })
	c.Track(b, func() { bFreed = true })
	c.Retain(a)
	c.Retain(b) // each holds the other: refcount never reaches zero on its own

	c.Collect()

	if !aFreed || !bFreed {
		t.Fatalf("expected cycle to be collected, got aFreed=%v bFreed=%v", aFreed, bFreed)
	}
}

func TestMarkAndSweepKeepsRooted(t *testing.T) {
	c := NewCollector(MarkAndSweep)
	a := &fakeObj{}
	freed := false
	c.Track(a, func() { freed = true })
	guard := c.Root(a)
	defer guard.Release()

	c.Collect()

	if freed {
		t.Fatal("rooted object must survive mark-and-sweep")
	}
}

func TestMarkAndSweepSweepsUnrooted(t *testing.T) {
	c := NewCollector(MarkAndSweep)
	a := &fakeObj{}
	freed := false
	c.Track(a, func() { freed = true })

	c.Collect()

	if !freed {
		t.Fatal("expected unrooted object to be swept")
	}
}
