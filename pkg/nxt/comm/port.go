package comm

import "io"

// Port is an open serial channel.
type Port interface {
	io.ReadWriteCloser
	// Available reports bytes received and not yet read, without blocking.
	Available() (int, error)
	// Flush discards all received bytes.
	Flush() error
}

// Opener opens the physical channel. It's called from the I/O worker.
type Opener interface {
	Open(Config) (Port, error)
}

// OpenFunc is func form of Opener.
type OpenFunc func(Config) (Port, error)

// Open implements Opener.
func (f OpenFunc) Open(conf Config) (Port, error) {
	return f(conf)
}
