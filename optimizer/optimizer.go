// Package optimizer rewrites a compiled bytecode.Prototype tree in
// place: constant folding, dead-code elimination, peephole cleanup,
// jump threading, tail-call conversion, and compaction, each gated by
// an OptLevel. Compaction only removes the filler jumps the other passes
// leave behind; registers are not renumbered and MaxStackSize is left
// as codegen set it. Every pass reports how many instructions it
// touched so callers (and tests) can see what actually fired.
package optimizer

import "github.com/lollipopkit/luacore/bytecode"

// OptLevel selects which passes Optimize runs, in increasing order of
// aggressiveness. Later levels always run everything earlier levels do.
type OptLevel int

const (
	None OptLevel = iota
	Basic
	Standard
	Aggressive
)

func (l OptLevel) String() string {
	switch l {
	case None:
		return "none"
	case Basic:
		return "basic"
	case Standard:
		return "standard"
	case Aggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Stats tallies what each pass changed across one Optimize call,
// summed over the whole prototype tree.
type Stats struct {
	ConstantsFolded  int
	DeadInstsKilled  int
	PeepholeRewrites int
	JumpsThreaded    int
	TailCallsMade    int
	InstsCompacted   int
}

func (s *Stats) add(o Stats) {
	s.ConstantsFolded += o.ConstantsFolded
	s.DeadInstsKilled += o.DeadInstsKilled
	s.PeepholeRewrites += o.PeepholeRewrites
	s.JumpsThreaded += o.JumpsThreaded
	s.TailCallsMade += o.TailCallsMade
	s.InstsCompacted += o.InstsCompacted
}

// Optimize rewrites p and every nested prototype in place according to
// level, returning the combined stats for the whole tree.
func Optimize(p *bytecode.Prototype, level OptLevel) Stats {
	var stats Stats
	optimizeOne(p, level, &stats)
	for _, child := range p.Protos {
		stats.add(Optimize(child, level))
	}
	return stats
}

func optimizeOne(p *bytecode.Prototype, level OptLevel, stats *Stats) {
	if level < Basic {
		return
	}
	stats.ConstantsFolded += foldConstants(p)

	if level < Standard {
		return
	}
	stats.DeadInstsKilled += eliminateDeadCode(p)
	stats.PeepholeRewrites += peephole(p)
	stats.JumpsThreaded += threadJumps(p)

	if level < Aggressive {
		return
	}
	stats.TailCallsMade += convertTailCalls(p)
	stats.InstsCompacted += compact(p)
}

// nopJmp is the filler instruction every pass below uses to blank out
// a killed instruction without shifting any pc: JMP with A=0 (closes
// no upvalues) and sBx=0 (targets the very next instruction).
func nopJmp() bytecode.Instruction {
	return bytecode.EncodeAsBx(bytecode.OP_JMP, 0, 0)
}

func isNopJmp(inst bytecode.Instruction) bool {
	if inst.Opcode() != bytecode.OP_JMP {
		return false
	}
	a, sbx := inst.AsBx()
	return a == 0 && sbx == 0
}
