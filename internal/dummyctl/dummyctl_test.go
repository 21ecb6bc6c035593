package dummyctl

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jnweiger/ruida-laser/internal/ruida/encoder"
	"github.com/jnweiger/ruida-laser/internal/ruida/rdoc"
	"github.com/jnweiger/ruida-laser/internal/uploader"
)

func TestVerifyChecksum(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03}
	var sum uint16
	for _, b := range payload {
		sum += uint16(b)
	}
	framed := append([]byte{byte(sum >> 8), byte(sum)}, payload...)

	got, ok := verifyChecksum(framed)
	if !ok {
		t.Fatal("expected checksum to verify")
	}
	if string(got) != string(payload) {
		t.Errorf("got %v, want %v", got, payload)
	}

	framed[0] ^= 0xFF
	if _, ok := verifyChecksum(framed); ok {
		t.Error("expected corrupted checksum to fail verification")
	}
}

func TestControllerAcksUploadedJob(t *testing.T) {
	c, err := New("127.0.0.1:0")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	doc := &rdoc.Document{Layers: []rdoc.Layer{{
		Power: []rdoc.PowerPair{{Min: 10, Max: 50}},
		Paths: []rdoc.Path{{Points: []rdoc.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}}},
	}}}
	stream, err := encoder.Encode(doc, encoder.Options{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	addr := c.conn.LocalAddr().(*net.UDPAddr)
	uctx, ucancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ucancel()
	if err := uploader.Upload(uctx, uploader.Config{ControllerAddr: addr.String()}, stream); err != nil {
		t.Fatalf("Upload: %v", err)
	}
}
