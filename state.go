package chip8

import "fmt"

// State is a copy of the registers, safe to hand to other goroutines
type State struct {
	OpCode      uint16
	Pc          uint16
	V           [16]byte
	I           uint16
	Sp          byte
	Stack       [StackSize]uint16
	Dt          byte
	St          byte
	AwaitingKey bool
	Cycles      uint
}

func (cpu *Cpu) State() State {
	return State{
		OpCode:      cpu.LastOpCode,
		Pc:          cpu.Pc,
		V:           cpu.V,
		I:           cpu.I,
		Sp:          cpu.Sp,
		Stack:       cpu.Stack,
		Dt:          cpu.Dt,
		St:          cpu.St,
		AwaitingKey: cpu.awaitingKey,
		Cycles:      cpu.cycles,
	}
}

// Instruction decodes the last fetched opcode
func (s State) Instruction() Instruction {
	return Decode(s.OpCode)
}

func (s State) String() string {
	return fmt.Sprintf("%04X %-14s PC=%03X I=%03X SP=%X DT=%02X ST=%02X V=% X",
		s.OpCode, s.Instruction(), s.Pc, s.I, s.Sp, s.Dt, s.St, s.V[:])
}
