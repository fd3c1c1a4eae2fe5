package bytecode

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	signature = "\x1bLuaCore"
	version   = 1
)

// Prototype is a compiled function body: its code, constants, nested
// function prototypes, and enough debug info to produce readable
// tracebacks.
type Prototype struct {
	Source          string       `json:"s"`
	LineDefined     uint32       `json:"ld"`
	LastLineDefined uint32       `json:"lld"`
	NumParams       byte         `json:"np"`
	IsVararg        bool         `json:"iv"`
	MaxStackSize    byte         `json:"ms"`
	Code            []Instruction `json:"c"`
	Constants       []any        `json:"cs"`
	Upvalues        []UpvalDesc  `json:"us"`
	Protos          []*Prototype `json:"ps"`
	LineInfo        []uint32     `json:"li"`
	LocVars         []LocVar     `json:"lvs"`
	UpvalueNames    []string     `json:"uns"`
}

// UpvalDesc tells codegen/vm where an upvalue's value lives in the
// enclosing function: a parent local register (Instack) or one of the
// parent's own upvalues.
type UpvalDesc struct {
	Name    string `json:"n"`
	Instack bool   `json:"is"`
	Idx     byte   `json:"idx"`
}

type LocVar struct {
	VarName string `json:"vn"`
	StartPC uint32 `json:"spc"`
	EndPC   uint32 `json:"epc"`
}

// Dump serializes a prototype tree to bytes, tagged with a signature and
// version so a loader can reject incompatible chunks.
func (p *Prototype) Dump() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(signature)
	buf.WriteByte(version)
	buf.Write(data)
	return buf.Bytes(), nil
}

// Load deserializes bytes produced by Dump.
func Load(data []byte) (*Prototype, error) {
	if len(data) < len(signature)+1 || string(data[:len(signature)]) != signature {
		return nil, fmt.Errorf("bytecode: not a recognized chunk")
	}
	if data[len(signature)] != version {
		return nil, fmt.Errorf("bytecode: version mismatch (chunk is v%d, loader is v%d)", data[len(signature)], version)
	}
	var p Prototype
	if err := json.Unmarshal(data[len(signature)+1:], &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsChunk reports whether data looks like a Dump'd prototype, without
// fully decoding it.
func IsChunk(data []byte) bool {
	return len(data) >= len(signature)+1 && string(data[:len(signature)]) == signature
}
