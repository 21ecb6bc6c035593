// Package relay implements the single-session UDP forwarder between exactly
// one client and the controller. It binds a frontend port (client-facing)
// and a backend port (controller-facing) and multiplexes between them with
// a cooperative, single-threaded state machine.
package relay

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/jnweiger/ruida-laser/internal/monitoring"
)

// BusyTimeout is the inactivity deadline after which an active session ends
// regardless of the pending Ending flag.
const BusyTimeout = 10 * time.Second

const (
	ackByte  = 0xC6
	nackByte = 0x46
)

// finRaw is the scrambled three-byte prefix of a minimal end-of-job packet
// (checksum + opcode 0xD7), used by the relay to detect session end without
// unscrambling the payload.
var finRaw = []byte{0x00, 0x60, 0x60}

// sessionState is the relay's four-state session machine, a consolidation
// of what would otherwise be several scattered booleans into a single enum.
type sessionState int

const (
	stateIdle sessionState = iota
	stateActive
	stateEnding
	stateCooling
)

func (s sessionState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateActive:
		return "Active"
	case stateEnding:
		return "Ending"
	default:
		return "Cooling"
	}
}

// Config configures a Relay instance.
type Config struct {
	// FrontendAddr is the client-facing bind address, e.g. ":50200".
	FrontendAddr string
	// BackendAddr is the controller-facing bind address, e.g. ":40200".
	BackendAddr string
	// ControllerAddr is the controller's address:port the backend socket
	// talks to; its IP is the only source IP accepted on it.
	ControllerAddr string
	// Store, if non-nil, receives a session-log row at session end.
	Store SessionLogger
}

// SessionLogger is the narrow interface internal/store's Store satisfies, so
// the relay can log sessions without importing the store package directly.
type SessionLogger interface {
	LogRelaySession(ctx context.Context, sessionID, clientIP, endReason string, start, end time.Time) error
}

// Relay forwards datagrams between one active client and the controller,
// enforcing single-session exclusion.
type Relay struct {
	cfg Config

	frontend *net.UDPConn
	backend  *net.UDPConn

	controllerAddr *net.UDPAddr

	state        sessionState
	activeClient *net.UDPAddr
	sessionID    string
	sessionStart time.Time
	lastPkt      time.Time
}

// New binds both sockets and resolves the controller address. The caller
// must call Close when done.
func New(cfg Config) (*Relay, error) {
	controllerAddr, err := net.ResolveUDPAddr("udp", cfg.ControllerAddr)
	if err != nil {
		return nil, fmt.Errorf("relay: resolve controller addr: %w", err)
	}
	frontendAddr, err := net.ResolveUDPAddr("udp", cfg.FrontendAddr)
	if err != nil {
		return nil, fmt.Errorf("relay: resolve frontend addr: %w", err)
	}
	backendAddr, err := net.ResolveUDPAddr("udp", cfg.BackendAddr)
	if err != nil {
		return nil, fmt.Errorf("relay: resolve backend addr: %w", err)
	}

	frontend, err := net.ListenUDP("udp", frontendAddr)
	if err != nil {
		return nil, fmt.Errorf("relay: listen frontend: %w", err)
	}
	backend, err := net.ListenUDP("udp", backendAddr)
	if err != nil {
		frontend.Close()
		return nil, fmt.Errorf("relay: listen backend: %w", err)
	}

	return &Relay{
		cfg:            cfg,
		frontend:       frontend,
		backend:        backend,
		controllerAddr: controllerAddr,
		state:          stateIdle,
	}, nil
}

// Close releases both sockets.
func (r *Relay) Close() error {
	ferr := r.frontend.Close()
	berr := r.backend.Close()
	if ferr != nil {
		return ferr
	}
	return berr
}

// Run services the relay until ctx is cancelled and then returns ctx.Err().
// A session end (FIN or inactivity) is logged, not returned. Socket read
// errors, timeouts included, are not returned either: the loop polls again.
func (r *Relay) Run(ctx context.Context) error {
	frontBuf := make([]byte, 65536)
	backBuf := make([]byte, 65536)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Backend is polled first within a wake-up, so controller replies
		// are delivered promptly ahead of new client traffic.
		deadline := time.Now().Add(200 * time.Millisecond)
		if err := r.backend.SetReadDeadline(deadline); err == nil {
			n, addr, err := r.backend.ReadFromUDP(backBuf)
			if err == nil {
				r.handleBackend(backBuf[:n], addr)
			}
		}

		if err := r.frontend.SetReadDeadline(time.Now().Add(200 * time.Millisecond)); err == nil {
			n, addr, err := r.frontend.ReadFromUDP(frontBuf)
			if err == nil {
				r.handleFrontend(frontBuf[:n], addr)
			}
		}

		r.checkTimeout(ctx)
	}
}

func (r *Relay) handleFrontend(payload []byte, addr *net.UDPAddr) {
	switch r.state {
	case stateIdle:
		r.claimSession(addr)
		r.forwardToBackend(payload)
	case stateActive, stateEnding:
		if !addr.IP.Equal(r.activeClient.IP) {
			monitoring.Logf("relay: NACKing stray frontend sender %s (active client is %s)", addr, r.activeClient)
			r.frontend.WriteToUDP([]byte{nackByte}, addr)
			return
		}
		r.lastPkt = time.Now()
		if isFinRaw(payload) {
			r.state = stateEnding
			monitoring.Logf("relay: session %s: FIN-RAW observed, ending on next backend reply", r.sessionID)
		}
		r.forwardToBackend(payload)
	case stateCooling:
		// A session just ended; treat as a fresh claim.
		r.claimSession(addr)
		r.forwardToBackend(payload)
	}
}

func (r *Relay) handleBackend(payload []byte, addr *net.UDPAddr) {
	if !addr.IP.Equal(r.controllerAddr.IP) || r.state == stateIdle || r.state == stateCooling {
		monitoring.Logf("relay: NACKing unauthorized/unexpected backend sender %s", addr)
		r.backend.WriteToUDP([]byte{nackByte}, addr)
		return
	}
	r.lastPkt = time.Now()
	r.forwardToFrontend(payload)
	if r.state == stateEnding {
		r.endSession("fin")
	}
}

func (r *Relay) claimSession(addr *net.UDPAddr) {
	r.state = stateActive
	r.activeClient = addr
	r.sessionID = uuid.New().String()
	r.sessionStart = time.Now()
	r.lastPkt = r.sessionStart
	monitoring.Logf("relay: session %s: claimed by %s", r.sessionID, addr)
}

func (r *Relay) endSession(reason string) {
	monitoring.Logf("relay: session %s: ended (%s)", r.sessionID, reason)
	if r.cfg.Store != nil {
		if err := r.cfg.Store.LogRelaySession(context.Background(), r.sessionID, r.activeClient.String(), reason, r.sessionStart, time.Now()); err != nil {
			monitoring.Logf("relay: session %s: log session: %v", r.sessionID, err)
		}
	}
	r.state = stateCooling
	r.activeClient = nil
}

func (r *Relay) checkTimeout(ctx context.Context) {
	if r.state == stateIdle || r.state == stateCooling {
		if r.state == stateCooling {
			r.state = stateIdle
		}
		return
	}
	if time.Since(r.lastPkt) >= BusyTimeout {
		r.endSession("timeout")
	}
}

func (r *Relay) forwardToBackend(payload []byte) {
	if _, err := r.backend.WriteToUDP(payload, r.controllerAddr); err != nil {
		monitoring.Logf("relay: forward to controller: %v", err)
	}
}

func (r *Relay) forwardToFrontend(payload []byte) {
	if _, err := r.frontend.WriteToUDP(payload, r.activeClient); err != nil {
		monitoring.Logf("relay: forward to client: %v", err)
	}
}

func isFinRaw(payload []byte) bool {
	if len(payload) != len(finRaw) {
		return false
	}
	for i, b := range finRaw {
		if payload[i] != b {
			return false
		}
	}
	return true
}
