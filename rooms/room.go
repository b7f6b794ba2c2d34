// Package rooms implements private voice rooms: the invite-threshold gate, provisioning,
// the owner-only lock, unlock, transfer and teardown actions, and the idle reaper.
//
// A room moves through Ineligible → Eligible → Provisioning → Active, toggles between
// Locked and Unlocked, may change hands via Transfer, and ends in teardown. The
// registry (Store) is the source of truth for ownership; channel permission edits on
// the Platform always happen before the registry is updated, and a failed edit leaves
// the registry unchanged.
package rooms

import (
	"time"

	"github.com/onnwee/invite-rooms/fault"
)

// Room is the persisted record of a provisioned room.
type Room struct {
	ID        string // voice channel id
	GuildID   string
	OwnerID   string
	Name      string
	Capacity  int
	Locked    bool
	CreatedAt time.Time
}

// Capability is a per-member permission on a room channel.
type Capability uint8

const (
	View Capability = 1 << iota
	Connect
	Speak
	Manage
	MuteOthers
	DeafenOthers
)

// ControlCapabilities is what the owner of a room holds.
const ControlCapabilities = View | Connect | Speak | Manage | MuteOthers | DeafenOthers

// Has reports whether every capability in o is set.
func (c Capability) Has(o Capability) bool { return c&o == o }

// Capacity bounds for a room's user limit.
const (
	MinCapacity = 1
	MaxCapacity = 99
	MaxNameLen  = 100
)

var (
	ErrNotOwner         = fault.New(fault.Authorization, "rooms.not_owner", "actor does not own this room")
	ErrBelowThreshold   = fault.New(fault.Conflict, "rooms.below_threshold", "invite count below room threshold")
	ErrAlreadyOwnsRoom  = fault.New(fault.Conflict, "rooms.already_owns", "requester already owns a room")
	ErrInvalidName      = fault.New(fault.Validation, "rooms.invalid_name", "room name must be 1-100 characters")
	ErrInvalidCapacity  = fault.New(fault.Validation, "rooms.invalid_capacity", "capacity must be an integer in [1, 99]")
	ErrInvalidTarget    = fault.New(fault.Validation, "rooms.invalid_target", "target id must be numeric")
	ErrSelfTransfer     = fault.New(fault.Validation, "rooms.self_transfer", "cannot transfer a room to its owner")
	ErrTargetNotMember  = fault.New(fault.NotFound, "rooms.target_not_member", "target is not a member of the guild")
	ErrTargetOwnsRoom   = fault.New(fault.Conflict, "rooms.target_owns", "target already owns a room")
	ErrRoomNotFound     = fault.New(fault.NotFound, "rooms.not_found", "room not found")
	ErrChannelMissing   = fault.New(fault.NotFound, "rooms.channel_missing", "room channel not found")
	ErrCategoryNotFound = fault.New(fault.NotFound, "rooms.category_missing", "room category not found")
)
