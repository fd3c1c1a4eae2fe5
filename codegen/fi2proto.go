package codegen

import "github.com/lollipopkit/luacore/bytecode"

func toProto(fi *funcInfo, source string) *bytecode.Prototype {
	proto := &bytecode.Prototype{
		Source:          source,
		LineDefined:     uint32(fi.line),
		LastLineDefined: uint32(fi.lastLine),
		NumParams:       byte(fi.numParams),
		IsVararg:        fi.isVararg,
		MaxStackSize:    byte(fi.maxRegs),
		Code:            fi.insts,
		Constants:       getConstants(fi),
		Upvalues:        getUpvalues(fi),
		Protos:          toProtos(fi.subFuncs, source),
		LineInfo:        getLineInfo(fi),
		LocVars:         getLocVars(fi),
		UpvalueNames:    getUpvalueNames(fi),
	}
	if proto.MaxStackSize < 2 {
		proto.MaxStackSize = 2
	}
	return proto
}

func toProtos(fis []*funcInfo, source string) []*bytecode.Prototype {
	protos := make([]*bytecode.Prototype, len(fis))
	for i, f := range fis {
		protos[i] = toProto(f, source)
	}
	return protos
}

func getConstants(fi *funcInfo) []any {
	consts := make([]any, len(fi.constants))
	for k, idx := range fi.constants {
		consts[idx] = k
	}
	return consts
}

func getLineInfo(fi *funcInfo) []uint32 {
	li := make([]uint32, len(fi.lineNums))
	for i, l := range fi.lineNums {
		li[i] = uint32(l)
	}
	return li
}

func getLocVars(fi *funcInfo) []bytecode.LocVar {
	locVars := make([]bytecode.LocVar, len(fi.locVars))
	for i, v := range fi.locVars {
		locVars[i] = bytecode.LocVar{
			VarName: v.name,
			StartPC: uint32(v.startPC),
			EndPC:   uint32(v.endPC),
		}
	}
	return locVars
}

func getUpvalues(fi *funcInfo) []bytecode.UpvalDesc {
	upvals := make([]bytecode.UpvalDesc, len(fi.upvalues))
	for name, uv := range fi.upvalues {
		if uv.locVarSlot >= 0 {
			upvals[uv.index] = bytecode.UpvalDesc{Name: name, Instack: true, Idx: byte(uv.locVarSlot)}
		} else {
			upvals[uv.index] = bytecode.UpvalDesc{Name: name, Instack: false, Idx: byte(uv.upvalIndex)}
		}
	}
	return upvals
}

func getUpvalueNames(fi *funcInfo) []string {
	names := make([]string, len(fi.upvalues))
	for name, uv := range fi.upvalues {
		names[uv.index] = name
	}
	return names
}
