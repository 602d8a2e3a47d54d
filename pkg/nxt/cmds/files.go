package cmds

import "github.com/robotalks/nxt.go/pkg/nxt/packet"

// Transfer chunk limits of a single telegram.
const (
	MaxReadChunk  = packet.MaxTelegramSize - 6
	MaxWriteChunk = packet.MaxTelegramSize - 3
)

func system(code byte, size, replySize int) *packet.Command {
	return packet.New(packet.CategorySystem, code, size, replySize)
}

func fileCommand(code byte, replySize int, filename string, extra int) *packet.Command {
	cmd := system(code, 2+FilenameSize+extra, replySize)
	cmd.Packet.PutString(2, FilenameSize, filename)
	return cmd
}

// OpenRead opens a file for reading.
type OpenRead struct {
	Filename string
}

// Command implements Builder.
func (c OpenRead) Command() *packet.Command {
	return fileCommand(CodeOpenRead, 8, c.Filename, 0)
}

// OpenReadReply is the reply of OpenRead.
type OpenReadReply struct {
	packet.Response
}

// Handle gets the file handle.
func (r *OpenReadReply) Handle() byte { return r.Packet.Uint8(3) }

// FileSize gets the file size.
func (r *OpenReadReply) FileSize() uint32 { return r.Packet.Uint32(4) }

// OpenWrite creates a file for writing. Linear requests a contiguous
// file, required for executables.
type OpenWrite struct {
	Filename string
	FileSize uint32
	Linear   bool
}

// Command implements Builder.
func (c OpenWrite) Command() *packet.Command {
	code := CodeOpenWrite
	if c.Linear {
		code = CodeOpenWriteLinear
	}
	cmd := fileCommand(code, 4, c.Filename, 4)
	cmd.Packet.PutUint32(22, c.FileSize)
	return cmd
}

// HandleReply is the reply carrying a file handle, used by OpenWrite,
// OpenWriteLinear and Close.
type HandleReply struct {
	packet.Response
}

// Handle gets the file handle.
func (r *HandleReply) Handle() byte { return r.Packet.Uint8(3) }

// OpenAppendData opens an existing data file for appending.
type OpenAppendData struct {
	Filename string
}

// Command implements Builder.
func (c OpenAppendData) Command() *packet.Command {
	return fileCommand(CodeOpenAppendData, 8, c.Filename, 0)
}

// OpenAppendDataReply is the reply of OpenAppendData.
type OpenAppendDataReply struct {
	packet.Response
}

// Handle gets the file handle.
func (r *OpenAppendDataReply) Handle() byte { return r.Packet.Uint8(3) }

// AvailableSize gets the bytes left in the file.
func (r *OpenAppendDataReply) AvailableSize() uint32 { return r.Packet.Uint32(4) }

// Read reads up to Count bytes, limited to MaxReadChunk.
type Read struct {
	Handle byte
	Count  uint16
}

// Command implements Builder.
func (c Read) Command() *packet.Command {
	count := c.Count
	if count > MaxReadChunk {
		count = MaxReadChunk
	}
	cmd := system(CodeRead, 5, 6+int(count))
	cmd.Packet.PutUint8(2, c.Handle)
	cmd.Packet.PutUint16(3, count)
	return cmd
}

// ReadReply is the reply of Read.
type ReadReply struct {
	packet.Response
}

// Handle gets the file handle.
func (r *ReadReply) Handle() byte { return r.Packet.Uint8(3) }

// Count gets the number of bytes read.
func (r *ReadReply) Count() uint16 { return r.Packet.Uint16(4) }

// Data gets the bytes read.
func (r *ReadReply) Data() []byte { return r.Packet.Bytes(6, int(r.Count())) }

// Write writes Data, limited to MaxWriteChunk bytes.
type Write struct {
	Handle byte
	Data   []byte
}

// Command implements Builder.
func (c Write) Command() *packet.Command {
	data := c.Data
	if len(data) > MaxWriteChunk {
		data = data[:MaxWriteChunk]
	}
	cmd := system(CodeWrite, 3+len(data), 6)
	cmd.Packet.PutUint8(2, c.Handle)
	cmd.Packet.PutBytes(3, data)
	return cmd
}

// WriteReply is the reply of Write.
type WriteReply struct {
	packet.Response
}

// Handle gets the file handle.
func (r *WriteReply) Handle() byte { return r.Packet.Uint8(3) }

// Count gets the number of bytes written.
func (r *WriteReply) Count() uint16 { return r.Packet.Uint16(4) }

// Close closes a file handle.
type Close struct {
	Handle byte
}

// Command implements Builder.
func (c Close) Command() *packet.Command {
	cmd := system(CodeClose, 3, 4)
	cmd.Packet.PutUint8(2, c.Handle)
	return cmd
}

// Delete deletes a file.
type Delete struct {
	Filename string
}

// Command implements Builder.
func (c Delete) Command() *packet.Command {
	return fileCommand(CodeDelete, 3+FilenameSize, c.Filename, 0)
}

// DeleteReply is the reply of Delete.
type DeleteReply struct {
	packet.Response
}

// Filename gets the deleted file name.
func (r *DeleteReply) Filename() string { return r.Packet.String(3, FilenameSize) }

// FindFirst starts a file search, Pattern supports wildcards like
// "*.rxe" or "*.*".
type FindFirst struct {
	Pattern string
}

// Command implements Builder.
func (c FindFirst) Command() *packet.Command {
	return fileCommand(CodeFindFirst, 28, c.Pattern, 0)
}

// FindNext continues a file search.
type FindNext struct {
	Handle byte
}

// Command implements Builder.
func (c FindNext) Command() *packet.Command {
	cmd := system(CodeFindNext, 3, 28)
	cmd.Packet.PutUint8(2, c.Handle)
	return cmd
}

// FindReply is the reply of FindFirst and FindNext.
type FindReply struct {
	packet.Response
}

// Handle gets the search handle.
func (r *FindReply) Handle() byte { return r.Packet.Uint8(3) }

// Filename gets the file found.
func (r *FindReply) Filename() string { return r.Packet.String(4, FilenameSize) }

// FileSize gets the size of the file found.
func (r *FindReply) FileSize() uint32 { return r.Packet.Uint32(24) }
