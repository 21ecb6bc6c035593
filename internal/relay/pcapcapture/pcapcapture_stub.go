//go:build !pcap
// +build !pcap

package pcapcapture

import (
	"context"
	"fmt"
	"time"
)

// Packet is one UDP payload pulled out of a capture. Defined in the stub
// build too so callers can compile against this package unconditionally.
type Packet struct {
	Timestamp time.Time
	SrcPort   int
	DstPort   int
	Payload   []byte
}

// Handler processes one captured packet.
type Handler func(Packet) error

// ReadFile is a stub used when the binary is built without the 'pcap' tag
// (the default, since it avoids a libpcap build dependency). Rebuild with
// -tags=pcap to enable offline capture replay.
func ReadFile(ctx context.Context, pcapFile string, frontendPort, backendPort int, handle Handler) error {
	return fmt.Errorf("pcapcapture: pcap support not enabled: rebuild with -tags=pcap")
}
