//go:build pcap
// +build pcap

// Package pcapcapture offers an offline alternative to running the live
// relay: read a previously captured .pcap file and replay its UDP payloads
// through the decoder for diagnosing a misbehaving controller session
// without needing the hardware attached.
package pcapcapture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/jnweiger/ruida-laser/internal/monitoring"
)

// Packet is one UDP payload pulled out of a capture, paired with the
// source and destination ports it was seen between, for attributing
// frontend vs. backend traffic during replay.
type Packet struct {
	Timestamp time.Time
	SrcPort   int
	DstPort   int
	Payload   []byte
}

// Handler processes one captured packet. Returning an error stops the walk.
type Handler func(Packet) error

// ReadFile opens pcapFile, filters to UDP traffic on frontendPort or
// backendPort, and invokes handle for each matching packet in capture
// order until ctx is cancelled or the file is exhausted.
func ReadFile(ctx context.Context, pcapFile string, frontendPort, backendPort int, handle Handler) error {
	h, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("pcapcapture: open %s: %w", pcapFile, err)
	}
	defer h.Close()

	filter := fmt.Sprintf("udp port %d or udp port %d", frontendPort, backendPort)
	if err := h.SetBPFFilter(filter); err != nil {
		return fmt.Errorf("pcapcapture: set BPF filter %q: %w", filter, err)
	}

	src := gopacket.NewPacketSource(h, h.LinkType())
	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case packet, ok := <-src.Packets():
			if !ok || packet == nil {
				monitoring.Logf("pcapcapture: %s exhausted after %d packets", pcapFile, count)
				return nil
			}
			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}
			count++
			p := Packet{
				Timestamp: packet.Metadata().Timestamp,
				SrcPort:   int(udp.SrcPort),
				DstPort:   int(udp.DstPort),
				Payload:   udp.Payload,
			}
			if err := handle(p); err != nil {
				return fmt.Errorf("pcapcapture: handler at packet %d: %w", count, err)
			}
		}
	}
}
