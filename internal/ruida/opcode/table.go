// Package opcode implements the Ruida command stream's two-level static
// dispatch table: a flat [256]*Entry where an Entry is either a leaf
// (single-byte command) or points to a secondary [256]*Entry keyed by the
// next byte. This gives O(1) dispatch and lets table construction itself
// catch any opcode collision at construction time.
package opcode

import "fmt"

// Action identifies which decoder method handles a leaf's arguments. The
// decoder package owns the actual handler implementations; this package
// only catalogs the dispatch shape.
type Action string

const (
	ActionMoveAbs   Action = "move_abs"
	ActionMoveRel   Action = "move_rel"
	ActionMoveHoriz Action = "move_horiz"
	ActionMoveVert  Action = "move_vert"
	ActionCutAbs    Action = "cut_abs"
	ActionCutRel    Action = "cut_rel"
	ActionCutHoriz  Action = "cut_horiz"
	ActionCutVert   Action = "cut_vert"

	ActionLaserMinPowGlobal Action = "laser_min_pow_global"
	ActionLaserMaxPowGlobal Action = "laser_max_pow_global"
	ActionLaserMinPowLayer  Action = "laser_min_pow_layer"
	ActionLaserMaxPowLayer  Action = "laser_max_pow_layer"
	ActionCutThroughMinPow  Action = "cut_through_min_pow"
	ActionCutThroughMaxPow  Action = "cut_through_max_pow"
	ActionLaserFrequency    Action = "laser_frequency"
	ActionLaserOffsetGlobal Action = "laser_offset_global"

	ActionSpeedGlobal Action = "speed_global"
	ActionSpeedLayer  Action = "speed_layer"

	ActionLayerColor    Action = "layer_color"
	ActionLayerFlags    Action = "layer_flags"
	ActionLayerPriority Action = "layer_priority"
	ActionLayerCount    Action = "layer_count"

	ActionBBoxTopLeftSet          Action = "bbox_topleft_set"
	ActionBBoxTopLeftShrink       Action = "bbox_topleft_shrink"
	ActionBBoxBottomRightSet      Action = "bbox_bottomright_set"
	ActionBBoxBottomRightExtend   Action = "bbox_bottomright_extend"
	ActionLayerBBoxTopLeftSet     Action = "layer_bbox_topleft_set"
	ActionLayerBBoxTopLeftShrink  Action = "layer_bbox_topleft_shrink"
	ActionLayerBBoxBotRightSet    Action = "layer_bbox_bottomright_set"
	ActionLayerBBoxBotRightExtend Action = "layer_bbox_bottomright_extend"

	ActionACKEcho Action = "ack_echo"
	ActionEOF     Action = "eof"
	ActionFinish  Action = "finish"

	ActionZMoveRel Action = "z_move_rel"

	ActionSkipBytes Action = "skip_bytes"
)

// Entry describes a single opcode. Leaf entries (Sub == nil) are terminal;
// sub-table entries (Sub != nil) dispatch on the next stream byte.
type Entry struct {
	Name     string
	Action   Action
	ArgLen   int    // bytes consumed after the opcode byte(s)
	ArgShape string // diagnostic / generic-skip shape, e.g. "nn", "rr", "pb"
	Literal  *int   // e.g. laser index 1..4 encoded by the opcode itself
	Sub      *[256]*Entry
}

func lit(v int) *int { return &v }

// Table1 is the primary 256-entry dispatch table, keyed by the first
// opcode byte.
var Table1 [256]*Entry

func leaf(name string, action Action, argLen int, shape string) *Entry {
	return &Entry{Name: name, Action: action, ArgLen: argLen, ArgShape: shape}
}

func leafLit(name string, action Action, argLen int, shape string, literal int) *Entry {
	return &Entry{Name: name, Action: action, ArgLen: argLen, ArgShape: shape, Literal: lit(literal)}
}

func set(t *[256]*Entry, b byte, e *Entry) {
	if t[b] != nil {
		panic(fmt.Sprintf("opcode: duplicate entry for byte 0x%02x", b))
	}
	t[b] = e
}

func newSub() *[256]*Entry {
	var t [256]*Entry
	return &t
}

func init() {
	// Motion
	set(&Table1, 0x88, leaf("Move_Abs", ActionMoveAbs, 10, "nn"))
	set(&Table1, 0x89, leaf("Move_Rel", ActionMoveRel, 4, "rr"))
	set(&Table1, 0x8A, leaf("Move_Horiz", ActionMoveHoriz, 2, "r"))
	set(&Table1, 0x8B, leaf("Move_Vert", ActionMoveVert, 2, "r"))

	// Cut
	set(&Table1, 0xA8, leaf("Cut_Abs", ActionCutAbs, 10, "nn"))
	set(&Table1, 0xA9, leaf("Cut_Rel", ActionCutRel, 4, "rr"))
	set(&Table1, 0xAA, leaf("Cut_Horiz", ActionCutHoriz, 2, "r"))
	set(&Table1, 0xAB, leaf("Cut_Vert", ActionCutVert, 2, "r"))

	// Simple single-byte controls C0..C5, two-byte skips C7 C8
	for b := byte(0xC0); b <= 0xC5; b++ {
		set(&Table1, b, leaf(fmt.Sprintf("Control_%02X", b), ActionSkipBytes, 0, ""))
	}
	set(&Table1, 0xC7, leaf("Control_C7", ActionSkipBytes, 2, "bb"))
	set(&Table1, 0xC8, leaf("Control_C8", ActionSkipBytes, 2, "bb"))

	// 0xC6 <sub>: laser/cut-through power, delays, dot time, frequency
	c6 := newSub()
	set(c6, 0x01, leafLit("Laser_1_Min_Pow", ActionLaserMinPowGlobal, 2, "p", 1))
	set(c6, 0x02, leafLit("Laser_1_Max_Pow", ActionLaserMaxPowGlobal, 2, "p", 1))
	set(c6, 0x21, leafLit("Laser_2_Min_Pow", ActionLaserMinPowGlobal, 2, "p", 2))
	set(c6, 0x22, leafLit("Laser_2_Max_Pow", ActionLaserMaxPowGlobal, 2, "p", 2))
	set(c6, 0x05, leaf("Cut_Through_Min_Pow", ActionCutThroughMinPow, 2, "p"))
	set(c6, 0x06, leaf("Cut_Through_Max_Pow", ActionCutThroughMaxPow, 2, "p"))
	set(c6, 0x07, leafLit("Laser_1_Min_Pow2", ActionLaserMinPowGlobal, 2, "p", 1))
	set(c6, 0x08, leafLit("Laser_1_Max_Pow2", ActionLaserMaxPowGlobal, 2, "p", 1))
	set(c6, 0x31, leafLit("Laser_1_Min_Pow_Lay", ActionLaserMinPowLayer, 3, "bp", 1))
	set(c6, 0x32, leafLit("Laser_1_Max_Pow_Lay", ActionLaserMaxPowLayer, 3, "bp", 1))
	set(c6, 0x41, leafLit("Laser_2_Min_Pow_Lay", ActionLaserMinPowLayer, 3, "bp", 2))
	set(c6, 0x42, leafLit("Laser_2_Max_Pow_Lay", ActionLaserMaxPowLayer, 3, "bp", 2))
	// 654XG-only laser 3/4 commands.
	set(c6, 0x35, leafLit("Laser_3_Min_Pow_Lay", ActionLaserMinPowLayer, 3, "bp", 3))
	set(c6, 0x36, leafLit("Laser_3_Max_Pow_Lay", ActionLaserMaxPowLayer, 3, "bp", 3))
	set(c6, 0x37, leafLit("Laser_4_Min_Pow_Lay", ActionLaserMinPowLayer, 3, "bp", 4))
	set(c6, 0x38, leafLit("Laser_4_Max_Pow_Lay", ActionLaserMaxPowLayer, 3, "bp", 4))
	set(c6, 0x10, leaf("Laser_Dot_Time", ActionSkipBytes, 5, "n"))
	set(c6, 0x11, leaf("Laser_On_Delay", ActionSkipBytes, 5, "n"))
	set(c6, 0x12, leaf("Laser_Off_Delay", ActionSkipBytes, 5, "n"))
	set(c6, 0x50, leafLit("Laser_Frequency", ActionLaserFrequency, 5, "n", 1))
	Table1[0xC6] = &Entry{Name: "Laser_Param", Sub: c6}

	// 0xC9 <sub>: speed
	c9 := newSub()
	set(c9, 0x02, leaf("Speed_Laser_1", ActionSpeedGlobal, 5, "n"))
	set(c9, 0x04, leaf("Speed_Laser_1_Layer", ActionSpeedLayer, 6, "bn"))
	Table1[0xC9] = &Entry{Name: "Speed", Sub: c9}

	// 0xCA <sub>: layer/blow/flags/color/priority/count
	ca := newSub()
	set(ca, 0x01, leaf("Blow_On_Off", ActionSkipBytes, 1, "b"))
	set(ca, 0x02, leaf("Layer_Priority", ActionLayerPriority, 1, "b"))
	set(ca, 0x03, leaf("Layer_Source", ActionSkipBytes, 1, "b"))
	set(ca, 0x06, leaf("Layer_Color", ActionLayerColor, 6, "bc"))
	set(ca, 0x10, leaf("Layer_Something", ActionSkipBytes, 1, "b"))
	set(ca, 0x22, leaf("Layer_Count", ActionLayerCount, 1, "b"))
	set(ca, 0x41, leaf("Layer_Flags", ActionLayerFlags, 2, "bb"))
	Table1[0xCA] = &Entry{Name: "Layer_Param", Sub: ca}

	// ACK echo, terminators
	set(&Table1, 0xCC, leaf("ACK", ActionACKEcho, 0, ""))
	set(&Table1, 0xD7, leaf("EOF", ActionEOF, 0, ""))
	set(&Table1, 0xEB, leaf("Finish", ActionFinish, 0, ""))

	// 0xD8 <sub>: light
	d8 := newSub()
	set(d8, 0x00, leaf("Light_Red_Off", ActionSkipBytes, 0, ""))
	set(d8, 0x01, leaf("Light_Red_On", ActionSkipBytes, 0, ""))
	Table1[0xD8] = &Entry{Name: "Light", Sub: d8}

	// 0xD9 <sub>: direct-drive X/Y/Z relative. Z (sub 0x02) consumes a
	// 5-byte absolute-shaped argument per the source's table, not a 2-byte
	// relative one; treated as declared here regardless.
	d9 := newSub()
	set(d9, 0x00, leaf("Axis_X_Move_Rel", ActionSkipBytes, 2, "r"))
	set(d9, 0x01, leaf("Axis_Y_Move_Rel", ActionSkipBytes, 2, "r"))
	set(d9, 0x02, leaf("Axis_Z_Move_Rel", ActionZMoveRel, 5, "n"))
	Table1[0xD9] = &Entry{Name: "Direct_Drive", Sub: d9}

	// 0xDA <sub>: work interval. The trailer's odometer record is
	// DA 01 06 20 <cut_m> <cut_m>: two literal bytes followed by two
	// 5-byte numbers (metres): the cut-distance-twice quirk observed
	// in captured traces.
	da := newSub()
	set(da, 0x01, leaf("Work_Interval", ActionSkipBytes, 12, "bbnn"))
	Table1[0xDA] = &Entry{Name: "Work_Interval", Sub: da}

	// 0xE6 <sub>: misc
	e6 := newSub()
	set(e6, 0x00, leaf("Misc_E6_00", ActionSkipBytes, 1, "b"))
	Table1[0xE6] = &Entry{Name: "Misc_E6", Sub: e6}

	// 0xE7 <sub>: bounding boxes and layer geometry
	e7 := newSub()
	set(e7, 0x00, leaf("Layer_Finish_Marker", ActionSkipBytes, 0, "")) // trailer: EB E7 00
	set(e7, 0x03, leaf("Bottom_Right_Set", ActionBBoxBottomRightSet, 10, "nn")) // observed encoder usage: overall box
	set(e7, 0x07, leaf("Top_Left_E7_07", ActionBBoxTopLeftSet, 10, "nn"))
	set(e7, 0x08, leaf("Bottom_Right_E7_08", ActionBBoxBottomRightSet, 10, "nn"))
	set(e7, 0x13, leaf("Misc_E7_13", ActionSkipBytes, 10, "nn"))
	set(e7, 0x17, leaf("Misc_E7_17", ActionSkipBytes, 10, "nn"))
	set(e7, 0x23, leaf("Misc_E7_23", ActionSkipBytes, 10, "nn"))
	set(e7, 0x24, leaf("Misc_E7_24", ActionSkipBytes, 10, "nn"))
	set(e7, 0x50, leaf("Top_Left_Shrink", ActionBBoxTopLeftShrink, 10, "nn"))
	set(e7, 0x51, leaf("Bottom_Right_Extend", ActionBBoxBottomRightExtend, 10, "nn"))
	set(e7, 0x52, leaf("Layer_Top_Left_Set", ActionLayerBBoxTopLeftSet, 11, "bnn"))
	set(e7, 0x53, leaf("Layer_Bottom_Right_Set", ActionLayerBBoxBotRightSet, 11, "bnn"))
	set(e7, 0x60, leaf("Feeding", ActionSkipBytes, 1, "b"))
	set(e7, 0x61, leaf("Layer_Top_Left_Shrink", ActionLayerBBoxTopLeftShrink, 11, "bnn"))
	set(e7, 0x62, leaf("Layer_Bottom_Right_Extend", ActionLayerBBoxBotRightExtend, 11, "bnn"))
	Table1[0xE7] = &Entry{Name: "BBox", Sub: e7}

	// 0xE8 <sub>: file-store
	e8 := newSub()
	set(e8, 0x00, leaf("File_Store_Name", ActionSkipBytes, 10, "--"))
	Table1[0xE8] = &Entry{Name: "File_Store", Sub: e8}

	// 0xEA: misc (single leaf, arg 1 byte observed as EA 00 sentinel)
	set(&Table1, 0xEA, leaf("Misc_EA", ActionSkipBytes, 1, "b"))

	// 0xF0: magic
	set(&Table1, 0xF0, leaf("Magic", ActionSkipBytes, 0, ""))

	// 0xF1 <sub>: start/offset/feeding
	f1 := newSub()
	set(f1, 0x00, leaf("Start0", ActionSkipBytes, 1, "b"))
	set(f1, 0x01, leaf("Start1", ActionSkipBytes, 1, "b"))
	set(f1, 0x02, leafLit("Laser_2_Offset", ActionLaserOffsetGlobal, 10, "nn", 2))
	Table1[0xF1] = &Entry{Name: "Start", Sub: f1}

	// 0xF2 <sub>: secondary bbox/params
	f2 := newSub()
	for _, b := range []byte{0x03, 0x04, 0x05, 0x06, 0x07} {
		set(f2, b, leaf(fmt.Sprintf("F2_%02X", b), ActionSkipBytes, 10, "nn"))
	}
	Table1[0xF2] = &Entry{Name: "Secondary", Sub: f2}
}

// Lookup resolves the entry for the opcode byte sequence starting at b0. If
// the primary entry is a sub-table, the caller supplies b1 as well (see
// Lookup2). Returns nil if the opcode is unknown at this level.
func Lookup(b0 byte) *Entry {
	return Table1[b0]
}

// Lookup2 resolves a two-byte opcode. e must be a sub-table entry (e.Sub != nil).
func Lookup2(e *Entry, b1 byte) *Entry {
	if e == nil || e.Sub == nil {
		return nil
	}
	return e.Sub[b1]
}
