package lp5562

// Register is a register address of the LP5562.
//
// RegStatus is cleared when read. Each engine's program memory block holds
// 16 instructions of 2 bytes, MSB first.
type Register uint8

const (
	RegEnable    Register = 0x00
	RegOpMode    Register = 0x01
	RegBluePWM   Register = 0x02
	RegGreenPWM  Register = 0x03
	RegRedPWM    Register = 0x04
	RegBlueCurr  Register = 0x05
	RegGreenCurr Register = 0x06
	RegRedCurr   Register = 0x07
	RegConfig    Register = 0x08
	RegEngine1PC Register = 0x09
	RegEngine2PC Register = 0x0a
	RegEngine3PC Register = 0x0b
	RegStatus    Register = 0x0c
	RegReset     Register = 0x0d
	RegWhitePWM  Register = 0x0e
	RegWhiteCurr Register = 0x0f
	RegProgram1  Register = 0x10
	RegProgram2  Register = 0x30
	RegProgram3  Register = 0x50
	RegLEDMap    Register = 0x70
)

// Enable register bits. The low 6 bits hold the engine execution modes.
const (
	enableLogEn   = 0x80
	enableChipEn  = 0x40
	enableExecMsk = 0x3f
)

// Config register bits.
const (
	configHF       = 0x40
	configPSEn     = 0x20
	configIntClkEn = 0x01
)

// Status register bits.
const (
	statusExtClkUsed = 0x08
	statusEngine1Int = 0x04
	statusEngine2Int = 0x02
	statusEngine3Int = 0x01
)

const (
	resetValue = 0xff

	// programBlockSize is the number of bytes of program memory per engine.
	programBlockSize = 2 * MaxInstructions

	// maxTransaction is the longest bus write the chip accepts, address byte included.
	maxTransaction = 32

	// maxProgramWords is how many instructions fit a single write after the address byte.
	maxProgramWords = (maxTransaction - 1) / 2
)

// Status is the content of the status register.
type Status uint8

// ExternalClock returns true if the chip is running from the external clock.
func (s Status) ExternalClock() bool { return s&statusExtClkUsed != 0 }

// Interrupts returns the engines that raised an interrupt with an end instruction.
func (s Status) Interrupts() EngineMask {
	var mask EngineMask
	if s&statusEngine1Int != 0 {
		mask |= MaskEngine1
	}
	if s&statusEngine2Int != 0 {
		mask |= MaskEngine2
	}
	if s&statusEngine3Int != 0 {
		mask |= MaskEngine3
	}
	return mask
}
