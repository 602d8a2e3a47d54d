package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

// Mailbox limits.
const (
	// MaxMessageWriteSize is the longest text MessageWrite carries, the
	// terminating zero takes the last byte.
	MaxMessageWriteSize = 58
	// RemoteInboxOffset is added to a mailbox to address the response
	// mailboxes of a program.
	RemoteInboxOffset = 10
	Inboxes           = 10
)

// MessageWrite writes a text message into a program mailbox.
// Text longer than MaxMessageWriteSize is truncated.
type MessageWrite struct {
	Inbox byte
	Text  string
}

// Command implements Builder.
func (c MessageWrite) Command() *packet.Command {
	text := c.Text
	if len(text) > MaxMessageWriteSize {
		text = text[:MaxMessageWriteSize]
	}
	size := len(text) + 1
	cmd := direct(CodeMessageWrite, 4+size, ReplyHeaderSize)
	cmd.Packet.PutUint8(2, c.Inbox)
	cmd.Packet.PutUint8(3, byte(size))
	cmd.Packet.PutString(4, size, text)
	return cmd
}

// MessageRead reads a message from a remote mailbox.
type MessageRead struct {
	RemoteInbox byte
	LocalInbox  byte
	Remove      bool
}

// Command implements Builder.
func (c MessageRead) Command() *packet.Command {
	cmd := direct(CodeMessageRead, 5, 5+MessageSize)
	cmd.Packet.PutUint8(2, c.RemoteInbox)
	cmd.Packet.PutUint8(3, c.LocalInbox)
	cmd.Packet.PutBool(4, c.Remove)
	return cmd
}

// Message is the reply of MessageRead.
type Message struct {
	packet.Response
}

// LocalInbox gets the mailbox the message was read into.
func (r *Message) LocalInbox() byte { return r.Packet.Uint8(3) }

// Size gets the message size including the terminating zero.
func (r *Message) Size() byte { return r.Packet.Uint8(4) }

// Text gets the message text.
func (r *Message) Text() string {
	size := int(r.Size())
	if size > MessageSize {
		size = MessageSize
	}
	return r.Packet.String(5, size)
}
