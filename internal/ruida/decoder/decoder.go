// Package decoder walks an unscrambled Ruida byte stream and reconstructs a
// Document plus a diagnostic trace of decoded operations.
package decoder

import (
	"fmt"

	"github.com/jnweiger/ruida-laser/internal/ruida/opcode"
	"github.com/jnweiger/ruida-laser/internal/ruida/rdoc"
	"github.com/jnweiger/ruida-laser/internal/ruida/rerr"
	"github.com/jnweiger/ruida-laser/internal/ruida/scramble"
	"github.com/jnweiger/ruida-laser/internal/ruida/wire"
)

// Op is one decoded operation, kept for diagnostics and for tools like
// hex-decode that want to print the command trace.
type Op struct {
	Offset int
	Name   string
	Action opcode.Action
	Args   []byte
}

// Options configures decoding behavior.
type Options struct {
	// Lenient, when true, skips a single byte and records an anomaly
	// instead of aborting on an unknown opcode.
	Lenient bool
}

// Result is the outcome of a Decode call: the reconstructed document, the
// operation trace (useful even on error, for diagnosing where decoding
// stopped), and any anomalies recorded in lenient mode.
type Result struct {
	Doc       *rdoc.Document
	Trace     []Op
	Anomalies []string
}

// state is the decoder's transient walk state, passed explicitly through
// handlers rather than kept as ad hoc package/decoder-struct mutable fields.
type state struct {
	doc         *rdoc.Document
	prio        int
	cursor      rdoc.Point
	hasCursor   bool
	lastPathIdx int
}

// Decode unscrambles data and parses it into a Document. If raw is true,
// data is assumed to already be unscrambled (for inspecting an
// already-decoded buffer).
func Decode(data []byte, raw bool, opts Options) (*Result, error) {
	buf := data
	if !raw {
		buf = scramble.Unbytes(data)
	}
	return decodeStream(buf, opts)
}

func decodeStream(buf []byte, opts Options) (*Result, error) {
	st := &state{
		doc:         &rdoc.Document{},
		lastPathIdx: -1,
	}
	res := &Result{Doc: st.doc}

	off := 0
	for off < len(buf) {
		b0 := buf[off]
		entry := opcode.Lookup(b0)
		argsStart := off + 1
		if entry != nil && entry.Sub != nil {
			if off+1 >= len(buf) {
				return res, rerr.AtOffset(off, fmt.Errorf("truncated two-byte opcode 0x%02x: %w", b0, rerr.ErrTruncated))
			}
			b1 := buf[off+1]
			sub := opcode.Lookup2(entry, b1)
			argsStart = off + 2
			if sub == nil {
				if opts.Lenient {
					res.Anomalies = append(res.Anomalies, fmt.Sprintf("offset %d: unknown opcode 0x%02x 0x%02x, skipping", off, b0, b1))
					off++
					continue
				}
				return res, rerr.AtOffset(off, fmt.Errorf("unknown opcode 0x%02x 0x%02x: %w", b0, b1, rerr.ErrUnknownOpcode2))
			}
			entry = sub
		} else if entry == nil {
			if opts.Lenient {
				res.Anomalies = append(res.Anomalies, fmt.Sprintf("offset %d: unknown opcode 0x%02x, skipping", off, b0))
				off++
				continue
			}
			return res, rerr.AtOffset(off, fmt.Errorf("unknown opcode 0x%02x: %w", b0, rerr.ErrUnknownOpcode))
		}

		if argsStart+entry.ArgLen > len(buf) {
			return res, rerr.AtOffset(off, fmt.Errorf("truncated arguments for %s: need %d bytes: %w", entry.Name, entry.ArgLen, rerr.ErrTruncated))
		}
		args := buf[argsStart : argsStart+entry.ArgLen]

		res.Trace = append(res.Trace, Op{Offset: off, Name: entry.Name, Action: entry.Action, Args: args})

		if err := st.dispatch(entry, args); err != nil {
			return res, rerr.AtOffset(off, err)
		}

		off = argsStart + entry.ArgLen

		if entry.Action == opcode.ActionEOF {
			break
		}
	}
	return res, nil
}

func (st *state) dispatch(e *opcode.Entry, args []byte) error {
	switch e.Action {
	case opcode.ActionMoveAbs:
		x, err := wire.DecodeNumber(args[0:5])
		if err != nil {
			return err
		}
		y, err := wire.DecodeNumber(args[5:10])
		if err != nil {
			return err
		}
		st.beginPath(rdoc.Point{X: x, Y: y})
	case opcode.ActionMoveRel:
		dx, err := wire.DecodeRelCoord(args[0:2])
		if err != nil {
			return err
		}
		dy, err := wire.DecodeRelCoord(args[2:4])
		if err != nil {
			return err
		}
		st.beginPathRel(dx, dy)
	case opcode.ActionMoveHoriz:
		dx, err := wire.DecodeRelCoord(args[0:2])
		if err != nil {
			return err
		}
		st.beginPathRel(dx, 0)
	case opcode.ActionMoveVert:
		dy, err := wire.DecodeRelCoord(args[0:2])
		if err != nil {
			return err
		}
		st.beginPathRel(0, dy)

	case opcode.ActionCutAbs:
		x, err := wire.DecodeNumber(args[0:5])
		if err != nil {
			return err
		}
		y, err := wire.DecodeNumber(args[5:10])
		if err != nil {
			return err
		}
		st.appendPoint(rdoc.Point{X: x, Y: y})
	case opcode.ActionCutRel:
		dx, err := wire.DecodeRelCoord(args[0:2])
		if err != nil {
			return err
		}
		dy, err := wire.DecodeRelCoord(args[2:4])
		if err != nil {
			return err
		}
		st.appendPointRel(dx, dy)
	case opcode.ActionCutHoriz:
		dx, err := wire.DecodeRelCoord(args[0:2])
		if err != nil {
			return err
		}
		st.appendPointRel(dx, 0)
	case opcode.ActionCutVert:
		dy, err := wire.DecodeRelCoord(args[0:2])
		if err != nil {
			return err
		}
		st.appendPointRel(0, dy)

	case opcode.ActionLayerPriority:
		st.prio = int(args[0])

	case opcode.ActionLayerColor:
		n := int(args[0])
		r, g, b, err := wire.DecodeColor(args[1:6])
		if err != nil {
			return err
		}
		st.doc.Layer(n).Color = rdoc.RGB{R: r, G: g, B: b}

	case opcode.ActionLayerFlags:
		// Recorded in the trace only; no Document field models layer flags.

	case opcode.ActionLayerCount:
		// args[0] == N-1; layers are created lazily, nothing to do here.

	case opcode.ActionSpeedGlobal:
		v, err := wire.DecodeNumber(args[0:5])
		if err != nil {
			return err
		}
		// Applies to whichever layer is currently prioritized.
		st.doc.Layer(st.prio).Speed.Cut = v
	case opcode.ActionSpeedLayer:
		n := int(args[0])
		v, err := wire.DecodeNumber(args[1:6])
		if err != nil {
			return err
		}
		l := st.doc.Layer(n)
		l.Speed.Cut = v

	case opcode.ActionLaserMinPowGlobal, opcode.ActionLaserMaxPowGlobal,
		opcode.ActionCutThroughMinPow, opcode.ActionCutThroughMaxPow:
		p, err := wire.DecodePercent(args)
		if err != nil {
			return err
		}
		// Applies to whichever layer is currently prioritized; modeled via
		// the per-layer power pairs below once a layer entry exists.
		if len(st.doc.Layers) > 0 {
			applyGlobalPower(st.doc.Layer(st.prio), e.Action, p)
		}
		if e.Action == opcode.ActionLaserMinPowGlobal || e.Action == opcode.ActionLaserMaxPowGlobal {
			idx := 1
			if e.Literal != nil {
				idx = *e.Literal
			}
			las := st.findLaser(idx, nil)
			if e.Action == opcode.ActionLaserMinPowGlobal {
				las.MinPow = &p
			} else {
				las.MaxPow = &p
			}
		}

	case opcode.ActionLaserMinPowLayer, opcode.ActionLaserMaxPowLayer:
		n := int(args[0])
		p, err := wire.DecodePercent(args[1:3])
		if err != nil {
			return err
		}
		laserIdx := 1
		if e.Literal != nil {
			laserIdx = *e.Literal
		}
		applyLayerPower(st.doc.Layer(n), e.Action, laserIdx, p)
		las := st.findLaser(laserIdx, &n)
		if e.Action == opcode.ActionLaserMinPowLayer {
			las.MinPow = &p
		} else {
			las.MaxPow = &p
		}

	case opcode.ActionLaserFrequency:
		v, err := wire.DecodeNumber(args[0:5])
		if err != nil {
			return err
		}
		idx := 1
		if e.Literal != nil {
			idx = *e.Literal
		}
		st.findLaser(idx, nil).Freq = &v
		if len(st.doc.Layers) > 0 {
			st.doc.Layer(st.prio).Freq = v
		}

	case opcode.ActionLaserOffsetGlobal:
		x, y, err := decodeXY(args)
		if err != nil {
			return err
		}
		idx := 2
		if e.Literal != nil {
			idx = *e.Literal
		}
		las := st.findLaser(idx, nil)
		las.OffsetX, las.OffsetY = x, y

	case opcode.ActionBBoxTopLeftSet, opcode.ActionBBoxTopLeftShrink:
		x, y, err := decodeXY(args)
		if err != nil {
			return err
		}
		st.unionDocBBoxCorner(x, y)
	case opcode.ActionBBoxBottomRightSet, opcode.ActionBBoxBottomRightExtend:
		x, y, err := decodeXY(args)
		if err != nil {
			return err
		}
		st.unionDocBBoxCorner(x, y)

	case opcode.ActionLayerBBoxTopLeftSet, opcode.ActionLayerBBoxTopLeftShrink,
		opcode.ActionLayerBBoxBotRightSet, opcode.ActionLayerBBoxBotRightExtend:
		n := int(args[0])
		x, y, err := decodeXY(args[1:])
		if err != nil {
			return err
		}
		st.unionLayerBBoxCorner(n, x, y)

	case opcode.ActionACKEcho, opcode.ActionEOF, opcode.ActionFinish,
		opcode.ActionZMoveRel, opcode.ActionSkipBytes:
		// No Document mutation; kept in the trace only. Z-axis moves are
		// accepted but not materialized as XY geometry.
	}
	return nil
}

func applyGlobalPower(l *rdoc.Layer, action opcode.Action, p float64) {
	if len(l.Power) == 0 {
		l.Power = []rdoc.PowerPair{{}}
	}
	switch action {
	case opcode.ActionLaserMinPowGlobal:
		l.Power[0].Min = p
	case opcode.ActionLaserMaxPowGlobal:
		l.Power[0].Max = p
	}
}

func applyLayerPower(l *rdoc.Layer, action opcode.Action, laserIdx int, p float64) {
	for len(l.Power) < laserIdx {
		l.Power = append(l.Power, rdoc.PowerPair{})
	}
	switch action {
	case opcode.ActionLaserMinPowLayer:
		l.Power[laserIdx-1].Min = p
	case opcode.ActionLaserMaxPowLayer:
		l.Power[laserIdx-1].Max = p
	}
}

func decodeXY(args []byte) (x, y float64, err error) {
	x, err = wire.DecodeNumber(args[0:5])
	if err != nil {
		return 0, 0, err
	}
	y, err = wire.DecodeNumber(args[5:10])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// findLaser returns the existing laser record matching laser number n and
// layer (nil for a global laser, a pointer to the layer number for a
// per-layer one), creating one if none exists yet.
func (st *state) findLaser(n int, layer *int) *rdoc.Laser {
	for i := range st.doc.Lasers {
		l := &st.doc.Lasers[i]
		if l.N != n {
			continue
		}
		if layer == nil && l.Layer == nil {
			return l
		}
		if layer != nil && l.Layer != nil && *l.Layer == *layer {
			return l
		}
	}
	nl := rdoc.Laser{N: n}
	if layer != nil {
		ly := *layer
		nl.Layer = &ly
	}
	st.doc.Lasers = append(st.doc.Lasers, nl)
	return &st.doc.Lasers[len(st.doc.Lasers)-1]
}

func (st *state) unionDocBBoxCorner(x, y float64) {
	p := rdoc.Point{X: x, Y: y}
	if st.doc.BBox == nil {
		st.doc.BBox = &rdoc.BBox{Min: p, Max: p}
		return
	}
	st.doc.BBox.Union(p)
}

func (st *state) unionLayerBBoxCorner(n int, x, y float64) {
	p := rdoc.Point{X: x, Y: y}
	l := st.doc.Layer(n)
	if l.BBox == nil {
		l.BBox = &rdoc.BBox{Min: p, Max: p}
		return
	}
	l.BBox.Union(p)
}

// beginPath starts a new path at an absolute point.
func (st *state) beginPath(p rdoc.Point) {
	if len(st.doc.Layers) == 0 {
		st.doc.AddLayer()
	}
	st.doc.Layer(st.prio).Paths = append(st.doc.Layer(st.prio).Paths, rdoc.Path{Points: []rdoc.Point{p}, Layer: st.prio})
	st.lastPathIdx = len(st.doc.Layer(st.prio).Paths) - 1
	st.cursor = p
	st.hasCursor = true
}

// beginPathRel starts a new path at current + delta; if no current
// position exists, assumes the origin.
func (st *state) beginPathRel(dx, dy float64) {
	base := rdoc.Point{}
	if st.hasCursor {
		base = st.cursor
	}
	st.beginPath(rdoc.Point{X: base.X + dx, Y: base.Y + dy})
}

// appendPoint appends to the current path, starting one at the origin if
// none exists.
func (st *state) appendPoint(p rdoc.Point) {
	if !st.hasCursor || st.lastPathIdx < 0 {
		st.beginPath(rdoc.Point{})
	}
	l := st.doc.Layer(st.prio)
	l.Paths[st.lastPathIdx].Points = append(l.Paths[st.lastPathIdx].Points, p)
	st.cursor = p
	st.hasCursor = true
}

func (st *state) appendPointRel(dx, dy float64) {
	base := rdoc.Point{}
	if st.hasCursor {
		base = st.cursor
	}
	st.appendPoint(rdoc.Point{X: base.X + dx, Y: base.Y + dy})
}
