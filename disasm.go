package chip8

import (
	"fmt"
	"strings"

	c8 "github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// opInstructions names every decoded operation after its entry in the
// chip8 opcode table
var opInstructions = map[Op]*c8.Instruction{
	OpCls:     c8.Cls,
	OpRet:     c8.Ret,
	OpJp:      c8.Jp,
	OpCall:    c8.Call,
	OpSeByte:  c8.Se,
	OpSneByte: c8.Sne,
	OpSeReg:   c8.Se,
	OpLdByte:  c8.Ld,
	OpAddByte: c8.Add,
	OpLdReg:   c8.Ld,
	OpOr:      c8.Or,
	OpAnd:     c8.And,
	OpXor:     c8.Xor,
	OpAddReg:  c8.Add,
	OpSub:     c8.Sub,
	OpShr:     c8.Shr,
	OpSubn:    c8.Subn,
	OpShl:     c8.Shl,
	OpSneReg:  c8.Sne,
	OpLdI:     c8.Ld,
	OpJpV0:    c8.Jp,
	OpRnd:     c8.Rnd,
	OpDrw:     c8.Drw,
	OpSkp:     c8.Skp,
	OpSknp:    c8.Sknp,
	OpLdVxDt:  c8.Ld,
	OpLdVxK:   c8.Ld,
	OpLdDtVx:  c8.Ld,
	OpLdStVx:  c8.Ld,
	OpAddI:    c8.Add,
	OpLdF:     c8.Ld,
	OpLdB:     c8.Ld,
	OpLdMemVx: c8.Ld,
	OpLdVxMem: c8.Ld,
}

// lookupOpcode returns the first table entry of the opcode's group whose
// mask matches
func lookupOpcode(opCode uint16) (c8.Opcode, bool) {
	for _, op := range c8.Opcodes[int(opCode>>12)] {
		if op.Info.Mask&opCode == op.Info.Value {
			return op, op.Instruction != nil
		}
	}

	return c8.Opcode{}, false
}

// Mnemonic is the upper-case instruction name, "???" for unknown opcodes
func (in Instruction) Mnemonic() string {
	ins, ok := opInstructions[in.Op]
	if !ok {
		return "???"
	}
	if op, found := lookupOpcode(in.OpCode); found {
		ins = op.Instruction
	}

	return strings.ToUpper(ins.Name)
}

// String disassembles the instruction
func (in Instruction) String() string {
	name := in.Mnemonic()

	switch in.Op {
	case OpCls, OpRet:
		return name
	case OpJp, OpCall:
		return fmt.Sprintf("%s %03X", name, in.NNN)
	case OpSeByte, OpSneByte, OpLdByte, OpAddByte, OpRnd:
		return fmt.Sprintf("%s V%X, %02X", name, in.X, in.KK)
	case OpSeReg, OpSneReg, OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpSubn:
		return fmt.Sprintf("%s V%X, V%X", name, in.X, in.Y)
	case OpShr, OpShl, OpSkp, OpSknp:
		return fmt.Sprintf("%s V%X", name, in.X)
	case OpLdI:
		return fmt.Sprintf("%s I, %03X", name, in.NNN)
	case OpJpV0:
		return fmt.Sprintf("%s V0, %03X", name, in.NNN)
	case OpDrw:
		return fmt.Sprintf("%s V%X, V%X, %X", name, in.X, in.Y, in.N)
	case OpLdVxDt:
		return fmt.Sprintf("%s V%X, DT", name, in.X)
	case OpLdVxK:
		return fmt.Sprintf("%s V%X, K", name, in.X)
	case OpLdDtVx:
		return fmt.Sprintf("%s DT, V%X", name, in.X)
	case OpLdStVx:
		return fmt.Sprintf("%s ST, V%X", name, in.X)
	case OpAddI:
		return fmt.Sprintf("%s I, V%X", name, in.X)
	case OpLdF:
		return fmt.Sprintf("%s F, V%X", name, in.X)
	case OpLdB:
		return fmt.Sprintf("%s B, V%X", name, in.X)
	case OpLdMemVx:
		return fmt.Sprintf("%s [I], V%X", name, in.X)
	case OpLdVxMem:
		return fmt.Sprintf("%s V%X, [I]", name, in.X)
	}

	return fmt.Sprintf("??? %04X", in.OpCode)
}
