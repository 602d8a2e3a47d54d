package packet

import "fmt"

// Try count limits.
const (
	MinTryCount = 1
	MaxTryCount = 20
)

// Command is a telegram sent to the brick.
type Command struct {
	// Packet is the telegram buffer. The header is owned by the
	// command constructor.
	Packet Packet
	// ExpectedResponseSize is the full size of the reply telegram,
	// zero if no reply is declared.
	ExpectedResponseSize int

	tryCount         int
	responseOverride bool
	requireResponse  bool
}

// New creates a command of size bytes with the header set.
// A size smaller than the header is extended to the header.
func New(category Category, code byte, size, responseSize int) *Command {
	if size < HeaderSize {
		size = HeaderSize
	}
	c := &Command{Packet: make(Packet, size), ExpectedResponseSize: responseSize}
	c.Packet[0], c.Packet[1] = byte(category), code
	return c
}

// NewCommand wraps raw telegram bytes. The no-response flag in the
// header becomes an explicit RequireResponse(false), and a reply size
// registered for the code is used as ExpectedResponseSize.
func NewCommand(data []byte) (*Command, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCommand, len(data))
	}
	if len(data) > MaxTelegramSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidCommand, len(data), MaxTelegramSize)
	}
	c := &Command{Packet: make(Packet, len(data))}
	copy(c.Packet, data)
	noResponse := c.Packet[0]&NoResponseFlag != 0
	c.Packet[0] &= categoryMask
	if !c.Packet.Category().IsValid() || c.Packet.Category() == CategoryReply {
		return nil, fmt.Errorf("%w: category 0x%02x", ErrInvalidCommand, c.Packet[0])
	}
	if noResponse {
		c.SetRequireResponse(false)
	} else if size, ok := ResponseSize(c.Packet); ok {
		c.ExpectedResponseSize = size
	} else {
		c.SetRequireResponse(true)
	}
	return c, nil
}

// Category gets the command category.
func (c *Command) Category() Category {
	return c.Packet.Category()
}

// Code gets the command code.
func (c *Command) Code() byte {
	return c.Packet.Code()
}

// Len returns the telegram size.
func (c *Command) Len() int {
	return len(c.Packet)
}

// RequireResponse indicates a reply is expected. More than one try
// always requires a reply. Otherwise an explicit setting wins over
// the presence of a declared response size.
func (c *Command) RequireResponse() bool {
	if c.TryCount() > 1 {
		return true
	}
	if c.responseOverride {
		return c.requireResponse
	}
	return c.ExpectedResponseSize > 0
}

// SetRequireResponse explicitly sets whether a reply is expected.
func (c *Command) SetRequireResponse(require bool) *Command {
	c.responseOverride, c.requireResponse = true, require
	return c
}

// TryCount gets number of attempts for the exchange.
func (c *Command) TryCount() int {
	if c.tryCount < MinTryCount {
		return MinTryCount
	}
	return c.tryCount
}

// SetTryCount sets number of attempts, clamped to [1, 20].
func (c *Command) SetTryCount(n int) *Command {
	switch {
	case n < MinTryCount:
		n = MinTryCount
	case n > MaxTryCount:
		n = MaxTryCount
	}
	c.tryCount = n
	return c
}

// Resize changes the buffer size keeping the header and existing payload.
func (c *Command) Resize(size int) error {
	if len(c.Packet) < HeaderSize {
		return fmt.Errorf("%w: resize without header", ErrInvalidOperation)
	}
	if size < HeaderSize || size > MaxTelegramSize {
		return fmt.Errorf("%w: size %d", ErrInvalidOperation, size)
	}
	if size <= cap(c.Packet) {
		old := len(c.Packet)
		c.Packet = c.Packet[:size]
		for n := old; n < size; n++ {
			c.Packet[n] = 0
		}
		return nil
	}
	p := make(Packet, size)
	copy(p, c.Packet)
	c.Packet = p
	return nil
}

// Payload returns the bytes after the header.
func (c *Command) Payload() []byte {
	if len(c.Packet) < HeaderSize {
		return nil
	}
	return c.Packet[HeaderSize:]
}

// Validate checks the command can be sent.
func (c *Command) Validate() error {
	if c == nil || len(c.Packet) < HeaderSize {
		return ErrInvalidCommand
	}
	if len(c.Packet) > MaxTelegramSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidCommand, len(c.Packet), MaxTelegramSize)
	}
	if cat := c.Category(); cat != CategoryDirect && cat != CategorySystem {
		return fmt.Errorf("%w: category %s", ErrInvalidCommand, cat)
	}
	if c.RequireResponse() && c.ExpectedResponseSize < HeaderSize+1 {
		return fmt.Errorf("%w: no response size for command 0x%02x", ErrInvalidCommand, c.Code())
	}
	if c.ExpectedResponseSize > MaxTelegramSize {
		return fmt.Errorf("%w: reply of %d bytes exceeds %d", ErrInvalidCommand, c.ExpectedResponseSize, MaxTelegramSize)
	}
	return nil
}

// Bytes encodes the telegram for the wire.
func (c *Command) Bytes() []byte {
	b := make([]byte, len(c.Packet))
	copy(b, c.Packet)
	if len(b) > 0 {
		b[0] &= categoryMask
		if !c.RequireResponse() {
			b[0] |= NoResponseFlag
		}
	}
	return b
}

// DecodeResponse turns reply bytes into the typed reply for this command.
func (c *Command) DecodeResponse(raw []byte) Reply {
	return Decode(c.Code(), raw)
}
