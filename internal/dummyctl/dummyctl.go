// Package dummyctl is a minimal stand-in for a real controller: it binds a
// UDP socket, validates each chunk's checksum prefix, replies ACK/NACK, and
// logs how many opcodes and layers each chunk decodes to. Used by the
// `dummy-controller` CLI subcommand and this package's own upload test to
// exercise the stack without real hardware.
package dummyctl

import (
	"context"
	"encoding/binary"
	"net"
	"time"

	"github.com/jnweiger/ruida-laser/internal/monitoring"
	"github.com/jnweiger/ruida-laser/internal/ruida/decoder"
)

const (
	ackByte  = 0xC6
	nackByte = 0x46
)

// Controller is a dummy UDP controller: it accepts checksum-framed chunks
// and decodes each datagram's payload independently for diagnostic logging.
// Chunks are not reassembled into a whole job.
type Controller struct {
	conn *net.UDPConn
	// Lenient, when true, configures the diagnostic decoder's lenient mode.
	Lenient bool
}

// New binds a UDP socket at addr (e.g. ":50200").
func New(addr string) (*Controller, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Controller{conn: conn}, nil
}

// Close releases the socket.
func (c *Controller) Close() error { return c.conn.Close() }

// Run services incoming chunks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	buf := make([]byte, 65536)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond)); err != nil {
			return err
		}
		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			return err
		}
		c.handleChunk(buf[:n], addr)
	}
}

func (c *Controller) handleChunk(datagram []byte, addr *net.UDPAddr) {
	payload, ok := verifyChecksum(datagram)
	if !ok {
		monitoring.Logf("dummyctl: bad checksum from %s, %d bytes", addr, len(datagram))
		c.conn.WriteToUDP([]byte{nackByte}, addr)
		return
	}

	res, err := decoder.Decode(payload, false, decoder.Options{Lenient: c.Lenient})
	if err != nil {
		monitoring.Logf("dummyctl: decode error from %s: %v", addr, err)
	} else {
		monitoring.Logf("dummyctl: decoded %d ops from %s (%d layers)", len(res.Trace), addr, len(res.Doc.Layers))
	}
	c.conn.WriteToUDP([]byte{ackByte}, addr)
}

// verifyChecksum validates the 2-byte big-endian checksum prefix of a
// framed chunk, returning the payload with the prefix removed.
func verifyChecksum(datagram []byte) ([]byte, bool) {
	if len(datagram) < 2 {
		return nil, false
	}
	want := binary.BigEndian.Uint16(datagram[0:2])
	payload := datagram[2:]
	var sum uint16
	for _, b := range payload {
		sum += uint16(b)
	}
	if sum != want {
		return nil, false
	}
	return payload, true
}
