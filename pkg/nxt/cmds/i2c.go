package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

// DefaultI2CAddress is the bus address of LEGO digital sensors.
const DefaultI2CAddress byte = 0x02

// Standard registers of NXT digital sensors.
const (
	I2CRegVersion     byte = 0x00
	I2CRegProductID   byte = 0x08
	I2CRegSensorType  byte = 0x10
	I2CRegCommand     byte = 0x41
	I2CRegMeasurement byte = 0x42
)

// Sizes of the identification registers.
const (
	I2CVersionSize    = 8
	I2CProductIDSize  = 8
	I2CSensorTypeSize = 8
)

// MaxI2CWriteSize is the register data an I2CWrite carries after the
// address and register bytes.
const MaxI2CWriteSize = LSDataSize - 2

func i2cAddress(addr byte) byte {
	if addr == 0 {
		return DefaultI2CAddress
	}
	return addr
}

// I2CRead requests Length bytes from Register of the device at
// Address, DefaultI2CAddress when zero. It's carried by LSWrite, the
// data is collected with LSRead.
type I2CRead struct {
	Port     InputPort
	Address  byte
	Register byte
	Length   byte
}

// LSWrite returns the carrying low speed command.
func (r I2CRead) LSWrite() LSWrite {
	return LSWrite{
		Port:   r.Port,
		TxData: []byte{i2cAddress(r.Address), r.Register},
		RxLen:  r.Length,
	}
}

// Command implements Builder.
func (r I2CRead) Command() *packet.Command {
	return r.LSWrite().Command()
}

// I2CWrite writes Data starting at Register of the device at Address.
// Data is limited to MaxI2CWriteSize bytes.
type I2CWrite struct {
	Port     InputPort
	Address  byte
	Register byte
	Data     []byte
}

// LSWrite returns the carrying low speed command.
func (w I2CWrite) LSWrite() LSWrite {
	data := w.Data
	if len(data) > MaxI2CWriteSize {
		data = data[:MaxI2CWriteSize]
	}
	tx := make([]byte, 0, 2+len(data))
	tx = append(tx, i2cAddress(w.Address), w.Register)
	tx = append(tx, data...)
	return LSWrite{Port: w.Port, TxData: tx}
}

// Command implements Builder.
func (w I2CWrite) Command() *packet.Command {
	return w.LSWrite().Command()
}

// I2CString decodes a zero padded identification register.
func I2CString(data []byte) string {
	return packet.Packet(data).String(0, len(data))
}
