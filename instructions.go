package chip8

import (
	"fmt"
	"io"
)

// Op identifies a decoded instruction
type Op byte

const (
	OpUnknown Op = iota
	OpCls
	OpRet
	OpJp
	OpCall
	OpSeByte
	OpSneByte
	OpSeReg
	OpLdByte
	OpAddByte
	OpLdReg
	OpOr
	OpAnd
	OpXor
	OpAddReg
	OpSub
	OpShr
	OpSubn
	OpShl
	OpSneReg
	OpLdI
	OpJpV0
	OpRnd
	OpDrw
	OpSkp
	OpSknp
	OpLdVxDt
	OpLdVxK
	OpLdDtVx
	OpLdStVx
	OpAddI
	OpLdF
	OpLdB
	OpLdMemVx
	OpLdVxMem
)

// Instruction is an opcode split into its operand fields
type Instruction struct {
	OpCode uint16
	Op     Op
	// X and Y are register indexes
	X, Y byte
	// N is the lowest nibble
	N byte
	// KK is the low byte
	KK byte
	// NNN is the low 12 bits
	NNN uint16
}

// Decode splits the opcode into nibbles w, x, y, z and selects the operation.
// More specific patterns are matched before the catch-all of their group.
func Decode(opCode uint16) Instruction {
	in := Instruction{
		OpCode: opCode,
		X:      byte((opCode & 0x0F00) >> 8),
		Y:      byte((opCode & 0x00F0) >> 4),
		N:      byte(opCode & 0x000F),
		KK:     byte(opCode & 0x00FF),
		NNN:    opCode & 0x0FFF,
	}

	switch opCode & 0xF000 {
	case 0x0000:
		switch opCode {
		case 0x00E0:
			in.Op = OpCls
		case 0x00EE:
			in.Op = OpRet
		}

	case 0x1000:
		in.Op = OpJp

	case 0x2000:
		in.Op = OpCall

	case 0x3000:
		in.Op = OpSeByte

	case 0x4000:
		in.Op = OpSneByte

	case 0x5000:
		if in.N == 0x0 {
			in.Op = OpSeReg
		}

	case 0x6000:
		in.Op = OpLdByte

	case 0x7000:
		in.Op = OpAddByte

	case 0x8000:
		switch in.N {
		case 0x0:
			in.Op = OpLdReg
		case 0x1:
			in.Op = OpOr
		case 0x2:
			in.Op = OpAnd
		case 0x3:
			in.Op = OpXor
		case 0x4:
			in.Op = OpAddReg
		case 0x5:
			in.Op = OpSub
		case 0x6:
			in.Op = OpShr
		case 0x7:
			in.Op = OpSubn
		case 0xE:
			in.Op = OpShl
		}

	case 0x9000:
		if in.N == 0x0 {
			in.Op = OpSneReg
		}

	case 0xA000:
		in.Op = OpLdI

	case 0xB000:
		in.Op = OpJpV0

	case 0xC000:
		in.Op = OpRnd

	case 0xD000:
		in.Op = OpDrw

	case 0xE000:
		switch in.KK {
		case 0x9E:
			in.Op = OpSkp
		case 0xA1:
			in.Op = OpSknp
		}

	case 0xF000:
		switch in.KK {
		case 0x07:
			in.Op = OpLdVxDt
		case 0x0A:
			in.Op = OpLdVxK
		case 0x15:
			in.Op = OpLdDtVx
		case 0x18:
			in.Op = OpLdStVx
		case 0x1E:
			in.Op = OpAddI
		case 0x29:
			in.Op = OpLdF
		case 0x33:
			in.Op = OpLdB
		case 0x55:
			in.Op = OpLdMemVx
		case 0x65:
			in.Op = OpLdVxMem
		}
	}

	return in
}

// next moves the PC to the following instruction
func (cpu *Cpu) next() {
	cpu.Pc += 2
}

// skipIf moves the PC past the following instruction when cond holds
func (cpu *Cpu) skipIf(cond bool) {
	if cond {
		cpu.Pc += 4
	} else {
		cpu.Pc += 2
	}
}

// execute runs a decoded instruction. Every branch advances the PC itself.
func (cpu *Cpu) execute(in Instruction) error {
	x, y := in.X, in.Y

	switch in.Op {
	case OpCls:
		// CLS :: Clear the display.
		cpu.clearScreen()
		cpu.next()

	case OpRet:
		// RET :: Return from a subroutine.
		addr, err := cpu.pop()
		if err != nil {
			return err
		}
		cpu.Pc = addr

	case OpJp:
		// JP addr :: Jump to location nnn.
		cpu.Pc = in.NNN

	case OpCall:
		// CALL addr :: Call subroutine at nnn.
		if err := cpu.push(cpu.Pc + 2); err != nil {
			return err
		}
		cpu.Pc = in.NNN

	case OpSeByte:
		// SE Vx, byte :: Skip next instruction if Vx = kk.
		cpu.skipIf(cpu.V[x] == in.KK)

	case OpSneByte:
		// SNE Vx, byte :: Skip next instruction if Vx != kk.
		cpu.skipIf(cpu.V[x] != in.KK)

	case OpSeReg:
		// SE Vx, Vy :: Skip next instruction if Vx = Vy.
		cpu.skipIf(cpu.V[x] == cpu.V[y])

	case OpLdByte:
		// LD Vx, byte :: Set Vx = kk.
		cpu.V[x] = in.KK
		cpu.next()

	case OpAddByte:
		// ADD Vx, byte :: Set Vx = Vx + kk. VF is untouched.
		cpu.V[x] += in.KK
		cpu.next()

	case OpLdReg:
		// LD Vx, Vy :: Set Vx = Vy.
		cpu.V[x] = cpu.V[y]
		cpu.next()

	case OpOr:
		// OR Vx, Vy :: Set Vx = Vx OR Vy.
		cpu.V[x] |= cpu.V[y]
		cpu.next()

	case OpAnd:
		// AND Vx, Vy :: Set Vx = Vx AND Vy.
		cpu.V[x] &= cpu.V[y]
		cpu.next()

	case OpXor:
		// XOR Vx, Vy :: Set Vx = Vx XOR Vy.
		cpu.V[x] ^= cpu.V[y]
		cpu.next()

	case OpAddReg:
		// ADD Vx, Vy :: Set Vx = Vx + Vy, set VF = carry.
		// The flag is written last so it wins when x is F.
		old := cpu.V[x]
		cpu.V[x] += cpu.V[y]
		cpu.V[0xF] = bool2byte(cpu.V[x] < old)
		cpu.next()

	case OpSub:
		// SUB Vx, Vy :: Set VF = NOT borrow, then Vx = Vx - Vy.
		cpu.V[0xF] = bool2byte(cpu.V[x] >= cpu.V[y])
		cpu.V[x] -= cpu.V[y]
		cpu.next()

	case OpShr:
		// SHR Vx :: Set VF = Vx bit 0, then Vx = Vx SHR 1. Vy is ignored.
		cpu.V[0xF] = cpu.V[x] & 0b00000001
		cpu.V[x] >>= 1
		cpu.next()

	case OpSubn:
		// SUBN Vx, Vy :: Set VF = NOT borrow, then Vx = Vy - Vx.
		cpu.V[0xF] = bool2byte(cpu.V[y] >= cpu.V[x])
		cpu.V[x] = cpu.V[y] - cpu.V[x]
		cpu.next()

	case OpShl:
		// SHL Vx :: Set VF = Vx bit 7, then Vx = Vx SHL 1. Vy is ignored.
		cpu.V[0xF] = (cpu.V[x] & 0b10000000) >> 7
		cpu.V[x] <<= 1
		cpu.next()

	case OpSneReg:
		// SNE Vx, Vy :: Skip next instruction if Vx != Vy.
		cpu.skipIf(cpu.V[x] != cpu.V[y])

	case OpLdI:
		// LD I, addr :: Set I = nnn.
		cpu.I = in.NNN
		cpu.next()

	case OpJpV0:
		// JP V0, addr :: Jump to location nnn + V0.
		cpu.Pc = in.NNN + uint16(cpu.V[0])

	case OpRnd:
		// RND Vx, byte :: Set Vx = random byte AND kk.
		buff := [1]byte{}
		if _, err := io.ReadFull(cpu.Rand, buff[:]); err != nil {
			return fmt.Errorf("reading random byte: %w", err)
		}
		cpu.V[x] = buff[0] & in.KK
		cpu.next()

	case OpDrw:
		// DRW Vx, Vy, nibble :: Display n-byte sprite starting at memory location I at (Vx, Vy), set VF = collision.
		if err := cpu.checkRange(cpu.I, int(in.N)); err != nil {
			return err
		}
		sprite := cpu.Memory[cpu.I : cpu.I+uint16(in.N)]
		collision := cpu.drawSprite(cpu.V[x], cpu.V[y], sprite)
		cpu.V[0xF] = bool2byte(collision)
		cpu.next()

	case OpSkp:
		// SKP Vx :: Skip next instruction if key with the value of Vx is pressed.
		cpu.skipIf(cpu.Keys.IsPressed(cpu.V[x]))

	case OpSknp:
		// SKNP Vx :: Skip next instruction if key with the value of Vx is not pressed.
		cpu.skipIf(!cpu.Keys.IsPressed(cpu.V[x]))

	case OpLdVxDt:
		// LD Vx, DT :: Set Vx = delay timer value.
		cpu.V[x] = cpu.Dt
		cpu.next()

	case OpLdVxK:
		// LD Vx, K :: Wait for a key press, store the value of the key in Vx.
		// The PC stays here until a key is down; the following cycles only
		// look at the keypad.
		cpu.awaitingKey = true
		cpu.keyDstRegister = x
		cpu.resolveKeyWait()

	case OpLdDtVx:
		// LD DT, Vx :: Set delay timer = Vx.
		cpu.Dt = cpu.V[x]
		cpu.next()

	case OpLdStVx:
		// LD ST, Vx :: Set sound timer = Vx.
		cpu.St = cpu.V[x]
		cpu.next()

	case OpAddI:
		// ADD I, Vx :: Set I = I + Vx.
		cpu.I += uint16(cpu.V[x])
		cpu.next()

	case OpLdF:
		// LD F, Vx :: Set I = location of sprite for digit Vx.
		cpu.I = FontOffset + uint16(cpu.V[x])*FontGlyphSize
		cpu.next()

	case OpLdB:
		// LD B, Vx :: Store Vx%100, (Vx%100)/10 and Vx%10 at I, I+1 and I+2.
		// This is not the usual hundreds/tens/units order and is kept on purpose.
		if err := cpu.checkRange(cpu.I, 3); err != nil {
			return err
		}
		v := cpu.V[x]
		cpu.Memory[cpu.I+0] = v % 100
		cpu.Memory[cpu.I+1] = (v % 100) / 10
		cpu.Memory[cpu.I+2] = v % 10
		cpu.next()

	case OpLdMemVx:
		// LD [I], Vx :: Store registers V0 through Vx in memory starting at location I.
		if err := cpu.checkRange(cpu.I, int(x)+1); err != nil {
			return err
		}
		for i := uint16(0); i <= uint16(x); i++ {
			cpu.Memory[cpu.I+i] = cpu.V[i]
		}
		cpu.next()

	case OpLdVxMem:
		// LD Vx, [I] :: Read registers V0 through Vx from memory starting at location I.
		if err := cpu.checkRange(cpu.I, int(x)+1); err != nil {
			return err
		}
		for i := uint16(0); i <= uint16(x); i++ {
			cpu.V[i] = cpu.Memory[cpu.I+i]
		}
		cpu.next()

	default:
		// The PC is not advanced, the same bytes are decoded again next cycle.
		return ErrOpCodeUnknown{
			OpCode: in.OpCode,
			Pc:     cpu.Pc,
		}
	}

	return nil
}
