package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const headerSize = 8

// MaxMessageSize is the largest message, header included, that fits
// in the 16-bit size field of the header.
const MaxMessageSize = math.MaxUint16

var (
	ErrShortMessage = errors.New("message too short for its arguments")
	ErrMissingNul   = errors.New("string is not nul-terminated")
	ErrMissingFD    = errors.New("no file descriptor available for fd argument")
	ErrTooLarge     = errors.New("message too large")
)

var hostEndian = binary.NativeEndian

// ceil32 rounds n up to the nearest multiple of 4.
func ceil32(n int) int {
	return (n + 3) &^ 0x3
}

// Message is a single request or event. Outgoing messages are built
// with the Put methods. Incoming messages are read with the argument
// methods, which must be called in the order that the arguments
// appear in the protocol. Argument errors are sticky and reported by
// Err.
type Message struct {
	Sender uint32
	Opcode uint16

	body []byte
	fds  []int

	off   int
	fdsrc fdSource
	err   error
}

type fdSource interface {
	takeFD() (int, bool)
}

// NewMessage starts building a message from sender.
func NewMessage(sender uint32, opcode uint16) *Message {
	return &Message{
		Sender: sender,
		Opcode: opcode,
	}
}

func (m *Message) String() string {
	return fmt.Sprintf("%v@%v(%v bytes)", m.Opcode, m.Sender, len(m.body))
}

// Size returns the size of the encoded message, including its header.
func (m *Message) Size() int {
	return headerSize + len(m.body)
}

// FDs returns the file descriptors attached to the message.
func (m *Message) FDs() []int {
	return m.fds
}

// MarshalBinary encodes the message, header included. File
// descriptors are not part of the result.
func (m *Message) MarshalBinary() ([]byte, error) {
	size := m.Size()
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: %v bytes", ErrTooLarge, size)
	}

	buf := make([]byte, headerSize, size)
	hostEndian.PutUint32(buf[0:4], m.Sender)
	hostEndian.PutUint32(buf[4:8], uint32(size)<<16|uint32(m.Opcode))
	return append(buf, m.body...), nil
}

func (m *Message) putU32(v uint32) {
	m.body = hostEndian.AppendUint32(m.body, v)
}

func (m *Message) PutInt(v int32) *Message {
	m.putU32(uint32(v))
	return m
}

func (m *Message) PutUint(v uint32) *Message {
	m.putU32(v)
	return m
}

// PutFixed appends v as a signed 24.8 fixed-point number.
func (m *Message) PutFixed(v float64) *Message {
	m.putU32(uint32(int32(math.Round(v * 256))))
	return m
}

// PutObject appends an object ID. An ID of 0 is a null object.
func (m *Message) PutObject(id uint32) *Message {
	m.putU32(id)
	return m
}

func (m *Message) PutNewID(id uint32) *Message {
	m.putU32(id)
	return m
}

func (m *Message) PutString(s string) *Message {
	m.putU32(uint32(len(s) + 1))
	m.body = append(m.body, s...)
	m.body = append(m.body, 0)
	m.pad(len(s) + 1)
	return m
}

func (m *Message) PutArray(a []byte) *Message {
	m.putU32(uint32(len(a)))
	m.body = append(m.body, a...)
	m.pad(len(a))
	return m
}

// PutFD attaches a file descriptor to the message. It takes up no
// space in the body.
func (m *Message) PutFD(fd int) *Message {
	m.fds = append(m.fds, fd)
	return m
}

func (m *Message) pad(n int) {
	for range ceil32(n) - n {
		m.body = append(m.body, 0)
	}
}

// Err returns the first error encountered while reading arguments.
func (m *Message) Err() error {
	return m.err
}

func (m *Message) fail(err error) {
	if m.err == nil {
		m.err = fmt.Errorf("opcode %v of object %v: %w", m.Opcode, m.Sender, err)
	}
}

func (m *Message) take(n int) []byte {
	if m.err != nil {
		return nil
	}
	if m.off+n > len(m.body) {
		m.fail(ErrShortMessage)
		return nil
	}
	b := m.body[m.off : m.off+n]
	m.off += n
	return b
}

func (m *Message) Uint() uint32 {
	b := m.take(4)
	if b == nil {
		return 0
	}
	return hostEndian.Uint32(b)
}

func (m *Message) Int() int32 {
	return int32(m.Uint())
}

func (m *Message) Fixed() float64 {
	return float64(m.Int()) / 256
}

func (m *Message) Object() uint32 {
	return m.Uint()
}

func (m *Message) NewID() uint32 {
	return m.Uint()
}

// Str reads a string argument. A null string is returned as "".
func (m *Message) Str() string {
	n := int(m.Uint())
	if n == 0 {
		return ""
	}
	b := m.take(ceil32(n))
	if b == nil {
		return ""
	}
	if b[n-1] != 0 {
		m.fail(ErrMissingNul)
		return ""
	}
	return string(b[:n-1])
}

func (m *Message) Array() []byte {
	n := int(m.Uint())
	b := m.take(ceil32(n))
	if b == nil {
		return nil
	}
	return b[:n:n]
}

// FD takes the next file descriptor received on the connection. The
// caller owns it.
func (m *Message) FD() int {
	if m.err != nil {
		return -1
	}
	if m.fdsrc != nil {
		if fd, ok := m.fdsrc.takeFD(); ok {
			return fd
		}
	}
	if len(m.fds) > 0 {
		fd := m.fds[0]
		m.fds = m.fds[1:]
		return fd
	}
	m.fail(ErrMissingFD)
	return -1
}
