package uploader

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
)

// fakeController accepts framed chunks and replies with a scripted sequence
// of response bytes, one per received datagram (repeating the last entry
// once exhausted).
func fakeController(t *testing.T, replies []byte) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 65536)
		i := 0
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			_ = buf[:n]
			reply := replies[i]
			if i < len(replies)-1 {
				i++
			}
			conn.WriteToUDP([]byte{reply}, addr)
		}
	}()
	return conn, conn.LocalAddr().String()
}

func TestUploadSingleChunkAcked(t *testing.T) {
	_, addr := fakeController(t, []byte{ackByte})
	err := Upload(context.Background(), Config{ControllerAddr: addr}, []byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUploadMultiChunk(t *testing.T) {
	_, addr := fakeController(t, []byte{ackByte})
	payload := make([]byte, MTU*2+17)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := Upload(context.Background(), Config{ControllerAddr: addr}, payload); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}

func TestUploadFirstChunkNackRetriesUntilContextDone(t *testing.T) {
	// Every reply NACKs the first chunk, so it is retried with backoff until
	// the context deadline ends the upload.
	_, addr := fakeController(t, []byte{nackByte})
	done := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() {
		done <- Upload(ctx, Config{ControllerAddr: addr}, []byte{0xAA})
	}()
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected the retry loop to still be backing off at timeout, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Upload did not respect context cancellation during backoff")
	}
}

func TestUploadNonFirstChunkNackIsChecksumMismatch(t *testing.T) {
	// ACK the first chunk, NACK the second.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	go func() {
		buf := make([]byte, 65536)
		i := 0
		for {
			_, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			if i == 0 {
				conn.WriteToUDP([]byte{ackByte}, addr)
			} else {
				conn.WriteToUDP([]byte{nackByte}, addr)
			}
			i++
		}
	}()

	payload := make([]byte, MTU+10)
	err = Upload(context.Background(), Config{ControllerAddr: conn.LocalAddr().String()}, payload)
	if !errors.Is(err, rerr.ErrChecksumMismatch) {
		t.Fatalf("got %v, want ErrChecksumMismatch", err)
	}
}

func TestUploadTimeoutWhenControllerSilent(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	// Never reply.

	// Note: chunkTimeout is 3s; this test accepts the real wait to exercise
	// the actual deadline path exactly once.
	err = Upload(context.Background(), Config{ControllerAddr: conn.LocalAddr().String()}, []byte{0x01})
	if !errors.Is(err, rerr.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}
