// Package wire implements the Wayland wire protocol: finding and
// connecting to the compositor's socket and exchanging messages and
// file descriptors over it.
package wire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	// DefaultDisplay is the socket name used if WAYLAND_DISPLAY is
	// unset.
	DefaultDisplay = "wayland-0"

	// maxFDs is the largest number of file descriptors that
	// libwayland will accept in a single control message.
	maxFDs = 28

	readSize = 4096
)

// SocketPath returns the path of the compositor's socket, resolving
// display the way that libwayland does. If display is empty,
// WAYLAND_DISPLAY is used, then DefaultDisplay. Relative names are
// resolved against XDG_RUNTIME_DIR.
func SocketPath(display string) (string, error) {
	if display == "" {
		display = os.Getenv("WAYLAND_DISPLAY")
	}
	if display == "" {
		display = DefaultDisplay
	}
	if filepath.IsAbs(display) {
		return display, nil
	}

	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, display), nil
}

// Dial connects to the compositor. If WAYLAND_SOCKET is set, it is
// taken to be an already connected file descriptor and is unset.
// Otherwise the socket at SocketPath(display) is dialed.
func Dial(display string) (*Conn, error) {
	if fd, ok := os.LookupEnv("WAYLAND_SOCKET"); ok && display == "" {
		os.Unsetenv("WAYLAND_SOCKET")
		return fromFD(fd)
	}

	path, err := SocketPath(display)
	if err != nil {
		return nil, err
	}

	c, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("dial %q: %w", path, err)
	}
	return NewConn(c), nil
}

func fromFD(s string) (*Conn, error) {
	fd, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("parse WAYLAND_SOCKET: %w", err)
	}

	file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		return nil, fmt.Errorf("WAYLAND_SOCKET: %w", err)
	}
	uc, ok := c.(*net.UnixConn)
	if !ok {
		c.Close()
		return nil, errors.New("WAYLAND_SOCKET is not a unix socket")
	}
	return NewConn(uc), nil
}

// Conn is a connection that messages can be sent and received over.
// Both ends of the protocol use the same framing, so a Conn works as
// either a client or a server.
//
// Writes are buffered until Flush is called. Reading and writing may
// happen concurrently, but only one goroutine may read at a time.
type Conn struct {
	c *net.UnixConn

	rbuf []byte

	rm   sync.Mutex
	rfds []int

	wm   sync.Mutex
	wbuf []byte
	wfds []int
}

func NewConn(c *net.UnixConn) *Conn {
	return &Conn{c: c}
}

// Close closes the underlying socket. Any received file descriptors
// that were never claimed are closed too.
func (c *Conn) Close() error {
	err := c.c.Close()

	c.rm.Lock()
	defer c.rm.Unlock()
	for _, fd := range c.rfds {
		unix.Close(fd)
	}
	c.rfds = nil

	return err
}

// Enqueue adds m to the write buffer.
func (c *Conn) Enqueue(m *Message) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}

	c.wm.Lock()
	defer c.wm.Unlock()

	c.wbuf = append(c.wbuf, data...)
	c.wfds = append(c.wfds, m.fds...)
	return nil
}

// Flush writes everything that has been enqueued. File descriptors
// are duplicated by the kernel, so the caller still owns them.
func (c *Conn) Flush() error {
	c.wm.Lock()
	defer c.wm.Unlock()

	for len(c.wbuf) > 0 {
		fds := c.wfds[:min(len(c.wfds), maxFDs)]
		var oob []byte
		if len(fds) > 0 {
			oob = unix.UnixRights(fds...)
		}

		n, _, err := c.c.WriteMsgUnix(c.wbuf, oob, nil)
		if err != nil {
			return fmt.Errorf("write message: %w", err)
		}
		c.wbuf = c.wbuf[n:]
		c.wfds = c.wfds[len(fds):]
	}
	c.wbuf = c.wbuf[:0]

	return nil
}

// WriteMessage enqueues m and flushes.
func (c *Conn) WriteMessage(m *Message) error {
	err := c.Enqueue(m)
	if err != nil {
		return err
	}
	return c.Flush()
}

// ReadMessage blocks until a full message has arrived and returns it.
// It returns io.EOF when the other end closes the connection.
func (c *Conn) ReadMessage() (*Message, error) {
	for {
		m, ok, err := c.parse()
		if err != nil {
			return nil, err
		}
		if ok {
			return m, nil
		}

		err = c.fill()
		if err != nil {
			return nil, err
		}
	}
}

func (c *Conn) parse() (*Message, bool, error) {
	if len(c.rbuf) < headerSize {
		return nil, false, nil
	}

	sender := hostEndian.Uint32(c.rbuf[0:4])
	word := hostEndian.Uint32(c.rbuf[4:8])
	size := int(word >> 16)
	if size < headerSize {
		return nil, false, fmt.Errorf("invalid message size %v from object %v", size, sender)
	}
	if len(c.rbuf) < size {
		return nil, false, nil
	}

	m := &Message{
		Sender: sender,
		Opcode: uint16(word),
		body:   append([]byte(nil), c.rbuf[headerSize:size]...),
		fdsrc:  c,
	}
	c.rbuf = c.rbuf[size:]
	return m, true, nil
}

func (c *Conn) fill() error {
	buf := make([]byte, readSize)
	oob := make([]byte, unix.CmsgSpace(maxFDs*4))

	n, oobn, _, _, err := c.c.ReadMsgUnix(buf, oob)
	if err != nil {
		// A peer that hangs up with events still unread resets the
		// connection instead of closing it.
		if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, unix.ECONNRESET) {
			return io.EOF
		}
		return fmt.Errorf("read message: %w", err)
	}

	if oobn > 0 {
		fds, err := parseRights(oob[:oobn])
		if err != nil {
			return err
		}
		c.rm.Lock()
		c.rfds = append(c.rfds, fds...)
		c.rm.Unlock()
	}

	if n == 0 {
		return io.EOF
	}
	c.rbuf = append(c.rbuf, buf[:n]...)
	return nil
}

func parseRights(oob []byte) ([]int, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}

	var fds []int
	for _, msg := range msgs {
		rights, err := unix.ParseUnixRights(&msg)
		if err != nil {
			continue
		}
		fds = append(fds, rights...)
	}
	return fds, nil
}

func (c *Conn) takeFD() (int, bool) {
	c.rm.Lock()
	defer c.rm.Unlock()

	if len(c.rfds) == 0 {
		return -1, false
	}
	fd := c.rfds[0]
	c.rfds = c.rfds[1:]
	return fd, true
}

// Pipe returns a pair of connected Conns backed by a socket pair.
func Pipe() (*Conn, *Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("socketpair: %w", err)
	}

	c1, err := connFromFD(fds[0], "wire-pipe-0")
	if err != nil {
		unix.Close(fds[1])
		return nil, nil, err
	}
	c2, err := connFromFD(fds[1], "wire-pipe-1")
	if err != nil {
		c1.Close()
		return nil, nil, err
	}
	return c1, c2, nil
}

func connFromFD(fd int, name string) (*Conn, error) {
	file := os.NewFile(uintptr(fd), name)
	defer file.Close()

	c, err := net.FileConn(file)
	if err != nil {
		return nil, err
	}
	return NewConn(c.(*net.UnixConn)), nil
}
