package packet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketFields(t *testing.T) {
	p := make(Packet, 16)
	p.PutUint16(2, 0x1234)
	p.PutUint32(4, 0xdeadbeef)
	p.PutInt8(8, -5)
	p.PutString(9, 5, "abcdefg")
	require.Equal(t, []byte{0x34, 0x12}, []byte(p[2:4]))
	require.Equal(t, uint16(0x1234), p.Uint16(2))
	require.Equal(t, uint32(0xdeadbeef), p.Uint32(4))
	require.Equal(t, int32(-559038737), p.Int32(4))
	require.Equal(t, int8(-5), p.Int8(8))
	require.Equal(t, "abcd", p.String(9, 5))
	require.Equal(t, byte(0), p[13])

	// out of range is harmless
	require.Equal(t, uint32(0), p.Uint32(14))
	p.PutUint32(14, 1)
	require.Equal(t, byte(0), p[14])
	require.Empty(t, p.String(20, 4))
}

func TestPacketStringPadding(t *testing.T) {
	p := Packet("\x02\x86\x00abc  \x00\x00")
	require.Equal(t, "abc", p.String(3, 7))
}

func TestNewCommand(t *testing.T) {
	Register(0x7b, 5, nil)

	testCases := []struct {
		name    string
		data    []byte
		err     error
		require bool
		size    int
	}{
		{"empty", nil, ErrInvalidCommand, false, 0},
		{"short", []byte{0x00}, ErrInvalidCommand, false, 0},
		{"reply category", []byte{0x02, 0x7b}, ErrInvalidCommand, false, 0},
		{"no response flag", []byte{0x80, 0x7b}, nil, false, 0},
		{"registered", []byte{0x00, 0x7b}, nil, true, 5},
		{"unregistered", []byte{0x01, 0x7c}, nil, true, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := NewCommand(tc.data)
			if tc.err != nil {
				require.True(t, errors.Is(err, tc.err))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.require, cmd.RequireResponse())
			require.Equal(t, tc.size, cmd.ExpectedResponseSize)
			require.Equal(t, tc.data[1], cmd.Code())
		})
	}
}

func TestRequireResponse(t *testing.T) {
	cmd := New(CategoryDirect, 0x03, 6, 3)
	require.True(t, cmd.RequireResponse())
	require.Equal(t, byte(0x00), cmd.Bytes()[0])

	cmd.SetRequireResponse(false)
	require.False(t, cmd.RequireResponse())
	require.Equal(t, byte(0x80), cmd.Bytes()[0])

	cmd.SetTryCount(3)
	require.True(t, cmd.RequireResponse())
	require.Equal(t, byte(0x00), cmd.Bytes()[0])

	cmd.SetTryCount(100)
	require.Equal(t, MaxTryCount, cmd.TryCount())
	cmd.SetTryCount(0)
	require.Equal(t, MinTryCount, cmd.TryCount())

	noReply := New(CategorySystem, 0x99, 2, 0)
	require.False(t, noReply.RequireResponse())
	require.Equal(t, byte(0x81), noReply.Bytes()[0])
}

func TestResizeKeepsHeader(t *testing.T) {
	cmd := New(CategorySystem, 0x83, 3, 6)
	cmd.Packet[2] = 7
	require.NoError(t, cmd.Resize(10))
	require.Equal(t, Packet{0x01, 0x83, 7, 0, 0, 0, 0, 0, 0, 0}, cmd.Packet)
	require.NoError(t, cmd.Resize(4))
	require.NoError(t, cmd.Resize(6))
	require.Equal(t, Packet{0x01, 0x83, 7, 0, 0, 0}, cmd.Packet)

	require.True(t, errors.Is(cmd.Resize(1), ErrInvalidOperation))
	require.True(t, errors.Is(cmd.Resize(MaxTelegramSize+1), ErrInvalidOperation))

	broken := &Command{Packet: Packet{0x00}}
	require.True(t, errors.Is(broken.Resize(8), ErrInvalidOperation))
}

func TestValidate(t *testing.T) {
	var nilCmd *Command
	require.True(t, errors.Is(nilCmd.Validate(), ErrInvalidCommand))
	require.True(t, errors.Is((&Command{}).Validate(), ErrInvalidCommand))
	require.True(t, errors.Is(New(CategoryDirect, 0x0b, 2, 0).SetRequireResponse(true).Validate(), ErrInvalidCommand))
	require.True(t, errors.Is(New(CategoryReply, 0x0b, 2, 5).Validate(), ErrInvalidCommand))
	require.NoError(t, New(CategoryDirect, 0x0b, 2, 5).Validate())
	require.NoError(t, New(CategoryDirect, 0x0d, 2, 0).Validate())
}

func TestResponseSuccess(t *testing.T) {
	testCases := []struct {
		name    string
		data    []byte
		success bool
		status  bool
	}{
		{"ok", []byte{0x02, 0x0b, 0x00, 0x10, 0x20}, true, false},
		{"status", []byte{0x02, 0x0b, 0xbd, 0, 0}, false, true},
		{"wrong type", []byte{0x01, 0x0b, 0x00, 0, 0}, false, false},
		{"wrong code", []byte{0x02, 0x0c, 0x00, 0, 0}, false, false},
		{"short", []byte{0x02, 0x0b}, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResponse(0x0b, tc.data)
			require.Equal(t, tc.success, r.Success())
			err := r.Err()
			if tc.success {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var statusErr *StatusError
			require.Equal(t, tc.status, errors.As(err, &statusErr))
		})
	}
	require.Contains(t, (&StatusError{Code: 0x0b, Status: StatusRequestFailed}).Error(), "request failed")
	require.True(t, EmptyResponse(0x04).Success())
}

type testReply struct {
	Response
}

func (r *testReply) Value() uint16 { return r.Packet.Uint16(3) }

func TestDecodeAndUpcast(t *testing.T) {
	Register(0x7a, 5, func(r *Response) Reply { return &testReply{Response: *r} })

	reply := Decode(0x7a, []byte{0x02, 0x7a, 0x00, 0x34, 0x12})
	typed, ok := reply.(*testReply)
	require.True(t, ok)
	require.Equal(t, uint16(0x1234), typed.Value())
	require.True(t, typed.Success())

	generic := NewResponse(0x7a, []byte{0x02, 0x7a, 0x00, 0x01, 0x00})
	up, err := Upcast[*testReply](generic)
	require.NoError(t, err)
	require.Equal(t, uint16(1), up.Value())

	same, err := Upcast[*testReply](typed)
	require.NoError(t, err)
	require.True(t, same == typed)

	_, err = Upcast[*testReply](NewResponse(0x7f, []byte{0x02, 0x7f, 0x00}))
	require.True(t, errors.Is(err, ErrTypeMismatch))

	unknown := Decode(0x7f, []byte{0x02, 0x7f, 0x00})
	_, ok = unknown.(*Response)
	require.True(t, ok)
}
