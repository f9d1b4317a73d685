package model

import (
	"strconv"
	"strings"
)

// ChannelKind tags which shape a Channel carries.
type ChannelKind uint8

const (
	// ChannelRepeater is a repeater pair: output frequency, offset direction
	// and an optional CTCSS (PL) tone.
	ChannelRepeater ChannelKind = iota + 1
	// ChannelDirect is a non-repeated transmission such as simplex, D-STAR
	// or SSB.
	ChannelDirect
	// ChannelSystem is a named linked-repeater system.
	ChannelSystem
)

func (k ChannelKind) String() string {
	switch k {
	case ChannelRepeater:
		return "repeater"
	case ChannelDirect:
		return "direct"
	case ChannelSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Channel describes where a net can be heard. It is display data only.
type Channel struct {
	Kind ChannelKind

	// Repeater shape. RepeaterID may be empty for repeaters the catalog
	// lists only by frequency.
	RepeaterID string
	Frequency  string
	Offset     string
	ToneHz     float64

	// Direct shape (Frequency is shared).
	Mode string

	// System shape.
	SystemName string
}

// String renders the channel the way the schedule shows it, e.g.
// "146.850 (-) PL 146.2", "145.585 Simplex" or "PAPA System".
func (c Channel) String() string {
	if c.Kind == ChannelSystem {
		return c.SystemName + " System"
	}

	parts := make([]string, 0, 4)
	if c.Frequency != "" {
		parts = append(parts, c.Frequency)
	}
	if c.Offset != "" {
		parts = append(parts, "("+c.Offset+")")
	}
	if c.ToneHz > 0 {
		parts = append(parts, "PL "+strconv.FormatFloat(c.ToneHz, 'f', 1, 64))
	}
	if c.Mode != "" {
		parts = append(parts, c.Mode)
	}
	return strings.Join(parts, " ")
}
