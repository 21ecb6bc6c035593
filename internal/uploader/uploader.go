// Package uploader implements the client side of the UDP job upload:
// fragment a scrambled job stream into checksum-prefixed chunks, send
// each, and wait for a single-byte ACK/NACK reply.
package uploader

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/jnweiger/ruida-laser/internal/monitoring"
	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
)

const (
	// MTU bounds the scrambled payload size per chunk.
	MTU = 1470

	ackByte  = 0xC6
	nackByte = 0x46

	chunkTimeout   = 3 * time.Second
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Config configures an upload run.
type Config struct {
	// ControllerAddr is the controller's "host:port" address; a bare host
	// gets port 50200.
	ControllerAddr string
	// SourcePort is the local port to send from, default 40200. Zero means
	// let the OS choose.
	SourcePort int
}

// Upload fragments payload (already scrambled) into MTU-sized chunks and
// sends them to cfg.ControllerAddr, retrying the first chunk on NACK with
// truncated binary exponential backoff. Returns the first error encountered;
// nil on a fully acknowledged upload.
func Upload(ctx context.Context, cfg Config, payload []byte) error {
	controllerAddr := cfg.ControllerAddr
	if _, _, err := net.SplitHostPort(controllerAddr); err != nil {
		controllerAddr = net.JoinHostPort(controllerAddr, "50200")
	}
	raddr, err := net.ResolveUDPAddr("udp", controllerAddr)
	if err != nil {
		return fmt.Errorf("uploader: resolve controller addr: %w", err)
	}
	var laddr *net.UDPAddr
	if cfg.SourcePort != 0 {
		laddr = &net.UDPAddr{Port: cfg.SourcePort}
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		return fmt.Errorf("uploader: dial controller: %w", err)
	}
	defer conn.Close()

	chunks := splitChunks(payload, MTU)
	monitoring.Logf("uploader: sending %d byte job in %d chunk(s) to %s", len(payload), len(chunks), cfg.ControllerAddr)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sendChunk(ctx, conn, chunk, i == 0); err != nil {
			return fmt.Errorf("uploader: chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// splitChunks breaks payload into chunks of at most max bytes.
func splitChunks(payload []byte, max int) [][]byte {
	if len(payload) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	for off := 0; off < len(payload); off += max {
		end := off + max
		if end > len(payload) {
			end = len(payload)
		}
		chunks = append(chunks, payload[off:end])
	}
	return chunks
}

// framedChunk prefixes chunk with its big-endian checksum.
func framedChunk(chunk []byte) []byte {
	var sum uint16
	for _, b := range chunk {
		sum += uint16(b)
	}
	out := make([]byte, 2+len(chunk))
	binary.BigEndian.PutUint16(out[0:2], sum)
	copy(out[2:], chunk)
	return out
}

// sendChunk sends one framed chunk and waits for a reply byte. On the first
// chunk, a NACK triggers retry with truncated binary exponential backoff; on
// later chunks, a NACK is a fatal checksum-mismatch error.
func sendChunk(ctx context.Context, conn *net.UDPConn, chunk []byte, isFirst bool) error {
	framed := framedChunk(chunk)
	backoff := initialBackoff

	for {
		if _, err := conn.Write(framed); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		reply, err := waitReply(conn)
		if err != nil {
			return err
		}

		switch reply {
		case ackByte:
			return nil
		case nackByte:
			if !isFirst {
				return rerr.ErrChecksumMismatch
			}
			monitoring.Logf("uploader: NACK on first chunk, retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		default:
			return fmt.Errorf("unexpected reply byte 0x%02x", reply)
		}
	}
}

func waitReply(conn *net.UDPConn) (byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(chunkTimeout)); err != nil {
		return 0, fmt.Errorf("set read deadline: %w", err)
	}
	buf := make([]byte, 1)
	n, err := conn.Read(buf)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return 0, rerr.ErrTimeout
		}
		return 0, fmt.Errorf("read reply: %w", err)
	}
	if n != 1 {
		return 0, fmt.Errorf("reply had %d bytes, want 1", n)
	}
	return buf[0], nil
}
