package chip8

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

type ErrOpCodeUnknown struct {
	OpCode uint16
	Pc     uint16
}

func (err ErrOpCodeUnknown) Error() string {
	return fmt.Sprintf("unknown opcode=%04X at PC=%03X", err.OpCode, err.Pc)
}

// ErrAddressOutOfRange is returned when an instruction would touch memory past the last address
type ErrAddressOutOfRange struct {
	Addr int
	Pc   uint16
}

func (err ErrAddressOutOfRange) Error() string {
	return fmt.Sprintf("address %X out of range at PC=%03X", err.Addr, err.Pc)
}

var ErrStackUnderflow = errors.New("stack underflow: try to pop an empty stack")
var ErrStackOverflow = errors.New("stack overflow: try to push to a full stack")

const StackSize = 16

// Chip-8 CPU and the machine state it mutates
type Cpu struct {
	Memory *Memory
	// V 8-bit registers
	V [16]byte
	// I 16-bit register (12-bit usable)
	I uint16
	// Delay timer register
	Dt byte
	// Sound timer register
	St byte
	// Program counter
	Pc uint16
	// Stack pointer
	Sp byte
	// Stack
	Stack [StackSize]uint16

	// Keys is replaced by the scheduler once per iteration
	Keys KeypadState
	// Screen is only mutated by CLS and DRW
	Screen FrameBuffer

	// Rand feeds RND, defaults to crypto/rand
	Rand io.Reader

	// LastOpCode and LastPc describe the most recently fetched instruction
	LastOpCode uint16
	LastPc     uint16

	cycles uint

	redraw         bool
	awaitingKey    bool
	keyDstRegister byte

	// Hooks that run before every cycle
	beforeCycleHooks []Hook
	// Hooks that run after every cycle
	afterCycleHooks []Hook
	// Hooks that run after an error
	errorHooks []ErrorHook
}

// NewCpu returns a CPU with zeroed registers and the PC at the start of the program.
// A nil memory gets a fresh one with the font loaded.
func NewCpu(memory *Memory) *Cpu {
	if memory == nil {
		memory = NewMemory()
	} else {
		loadCharactersInto(memory)
	}

	return &Cpu{
		Memory: memory,

		V:     [16]byte{},
		I:     0,
		Dt:    0,
		St:    0,
		Pc:    StartOfProgram,
		Sp:    0,
		Stack: [StackSize]uint16{},

		Rand: rand.Reader,

		beforeCycleHooks: make([]Hook, 0),
		afterCycleHooks:  make([]Hook, 0),
		errorHooks:       make([]ErrorHook, 0),
	}
}

// LoadProgram copies the program into memory at the start-of-program address
func (cpu *Cpu) LoadProgram(program []byte) error {
	return cpu.Memory.LoadProgram(program)
}

func (cpu Cpu) IsSoundTimerActive() bool {
	return cpu.St > 0
}

// IsAwaitingKey reports whether an LD Vx, K is blocking the program
func (cpu Cpu) IsAwaitingKey() bool {
	return cpu.awaitingKey
}

// ShouldRedraw reports whether the frame buffer changed since the last ClearRedraw
func (cpu Cpu) ShouldRedraw() bool {
	return cpu.redraw
}

func (cpu *Cpu) ClearRedraw() {
	cpu.redraw = false
}

func (cpu Cpu) Cycles() uint {
	return cpu.cycles
}

// TickTimers decrements both timers toward zero
func (cpu *Cpu) TickTimers() {
	if cpu.Dt > 0 {
		cpu.Dt--
	}
	if cpu.St > 0 {
		cpu.St--
	}
}

// Cycle fetches, decodes and executes the instruction at the PC.
// A failed cycle leaves the machine state untouched.
func (cpu *Cpu) Cycle() error {
	cpu.runBeforeCycleHooks()

	if err := cpu.step(); err != nil {
		cpu.runErrorHooks(err)
		return err
	}

	cpu.cycles++
	cpu.runAfterCycleHooks()

	return nil
}

func (cpu *Cpu) step() error {
	if cpu.awaitingKey {
		cpu.resolveKeyWait()
		return nil
	}

	opCode, err := cpu.fetch()
	if err != nil {
		return err
	}

	return cpu.execute(Decode(opCode))
}

func (cpu *Cpu) fetch() (uint16, error) {
	if err := cpu.checkRange(cpu.Pc, 2); err != nil {
		return 0, err
	}

	var opCode uint16
	opCode |= uint16(cpu.Memory[cpu.Pc+0]) << 8
	opCode |= uint16(cpu.Memory[cpu.Pc+1]) << 0

	cpu.LastOpCode = opCode
	cpu.LastPc = cpu.Pc

	return opCode, nil
}

// checkRange verifies that [addr, addr+n) lies inside memory
func (cpu Cpu) checkRange(addr uint16, n int) error {
	if last := int(addr) + n - 1; n > 0 && last >= MemorySize {
		return ErrAddressOutOfRange{
			Addr: last,
			Pc:   cpu.Pc,
		}
	}
	return nil
}

func (cpu *Cpu) resolveKeyWait() {
	k, pressed := cpu.Keys.FirstPressed()
	if !pressed {
		return
	}

	cpu.V[cpu.keyDstRegister] = k
	cpu.awaitingKey = false
	cpu.Pc += 2
}

func (cpu *Cpu) push(addr uint16) error {
	if cpu.Sp >= StackSize {
		return ErrStackOverflow
	}
	cpu.Stack[cpu.Sp] = addr
	cpu.Sp++

	return nil
}

func (cpu *Cpu) pop() (uint16, error) {
	if cpu.Sp == 0 {
		return 0, ErrStackUnderflow
	}
	cpu.Sp--

	return cpu.Stack[cpu.Sp], nil
}

func bool2byte(b bool) byte {
	if b {
		return 1
	}

	return 0
}
