package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

// LSGetStatus queries the bytes ready on a low speed (I2C) port.
type LSGetStatus struct {
	Port InputPort
}

// Command implements Builder.
func (c LSGetStatus) Command() *packet.Command {
	cmd := direct(CodeLSGetStatus, 3, 4)
	cmd.Packet.PutUint8(2, byte(c.Port))
	return cmd
}

// LSStatus is the reply of LSGetStatus.
type LSStatus struct {
	packet.Response
}

// BytesReady gets the number of bytes waiting to be read.
func (r *LSStatus) BytesReady() byte { return r.Packet.Uint8(3) }

// LSWrite writes TxData to a low speed port and requests RxLen bytes
// back. Both are limited to LSDataSize bytes.
type LSWrite struct {
	Port   InputPort
	TxData []byte
	RxLen  byte
}

// Command implements Builder.
func (c LSWrite) Command() *packet.Command {
	tx := c.TxData
	if len(tx) > LSDataSize {
		tx = tx[:LSDataSize]
	}
	rx := c.RxLen
	if rx > LSDataSize {
		rx = LSDataSize
	}
	cmd := direct(CodeLSWrite, 5+len(tx), ReplyHeaderSize)
	cmd.Packet.PutUint8(2, byte(c.Port))
	cmd.Packet.PutUint8(3, byte(len(tx)))
	cmd.Packet.PutUint8(4, rx)
	cmd.Packet.PutBytes(5, tx)
	return cmd
}

// LSRead reads the bytes received on a low speed port.
type LSRead struct {
	Port InputPort
}

// Command implements Builder.
func (c LSRead) Command() *packet.Command {
	cmd := direct(CodeLSRead, 3, 4+LSDataSize)
	cmd.Packet.PutUint8(2, byte(c.Port))
	return cmd
}

// LSReadReply is the reply of LSRead, always 20 bytes.
type LSReadReply struct {
	packet.Response
}

// BytesRead gets the number of valid bytes in RxData.
func (r *LSReadReply) BytesRead() byte { return r.Packet.Uint8(3) }

// RxData gets the received bytes.
func (r *LSReadReply) RxData() []byte {
	n := int(r.BytesRead())
	if n > LSDataSize {
		n = LSDataSize
	}
	return r.Packet.Bytes(4, n)
}
