// Package network implements client-server communication.
package network

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"net"
)

// maxFrameSize bounds a single message to guard against a corrupt or
// malicious length prefix driving an unbounded allocation.
const maxFrameSize = 16 * 1024 * 1024

// Transport abstracts the network connection
type Transport interface {
	// Connect establishes a connection to the server
	Connect(addr string) error

	// Accept waits for incoming connections (server only)
	Accept() (Connection, error)

	// Close closes the transport
	Close() error
}

// Connection represents a single client-server connection
type Connection interface {
	// Send sends a message
	Send(data []byte) error

	// Recv receives a message (blocking)
	Recv() ([]byte, error)

	// Close closes the connection
	Close() error

	// RemoteAddr returns the remote address
	RemoteAddr() net.Addr
}

// TCPTransport implements Transport over TCP
type TCPTransport struct {
	listener net.Listener
	conn     net.Conn
}

// NewTCPTransport creates a TCP transport
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

// Listen starts listening on the given address (server)
func (t *TCPTransport) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	t.listener = ln
	return nil
}

// Connect connects to a server (client)
func (t *TCPTransport) Connect(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

// Connection returns the client-side connection established by Connect.
// Only valid after a successful Connect call.
func (t *TCPTransport) Connection() Connection {
	return &TCPConnection{conn: t.conn}
}

// Accept accepts a new connection (server)
func (t *TCPTransport) Accept() (Connection, error) {
	conn, err := t.listener.Accept()
	if err != nil {
		return nil, err
	}
	return &TCPConnection{conn: conn}, nil
}

// Close closes the transport
func (t *TCPTransport) Close() error {
	if t.listener != nil {
		return t.listener.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// TCPConnection wraps a TCP connection
type TCPConnection struct {
	conn net.Conn
}

// Send writes a 4-byte big-endian length prefix followed by data in a
// single Write call so framing can't be torn by a partial write.
func (c *TCPConnection) Send(data []byte) error {
	if len(data) > maxFrameSize {
		return fmt.Errorf("network: frame of %d bytes exceeds max %d", len(data), maxFrameSize)
	}
	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	_, err := c.conn.Write(frame)
	return err
}

// Recv reads a 4-byte length prefix, then blocks until the full payload it
// announces has arrived.
func (c *TCPConnection) Recv() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.conn, lenBuf[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("network: incoming frame of %d bytes exceeds max %d", size, maxFrameSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *TCPConnection) Close() error {
	return c.conn.Close()
}

func (c *TCPConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SendGob encodes v with encoding/gob and sends it as one framed message.
func SendGob(conn Connection, v interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("network: encoding gob payload: %w", err)
	}
	return conn.Send(buf.Bytes())
}

// RecvGob receives one framed message and decodes it into v with
// encoding/gob.
func RecvGob(conn Connection, v interface{}) error {
	payload, err := conn.Recv()
	if err != nil {
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("network: decoding gob payload: %w", err)
	}
	return nil
}
