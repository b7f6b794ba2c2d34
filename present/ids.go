package present

import "strings"

// Custom ids carried by buttons and forms.
const (
	PanelCreate = "panel:create"
	RoomForm    = "room:form"

	InputRoomName     = "room_name"
	InputRoomCapacity = "room_capacity"
	InputNewOwner     = "new_owner_id"
)

// Room actions encoded in custom ids as room:<action>:<roomID>.
const (
	ActionLock     = "lock"
	ActionUnlock   = "unlock"
	ActionGive     = "give"
	ActionDelete   = "delete"
	ActionTransfer = "transfer"
)

// RoomID encodes a per-room custom id.
func RoomID(action, roomID string) string {
	return "room:" + action + ":" + roomID
}

// ParseRoomID splits a per-room custom id. ok is false for any other id.
func ParseRoomID(customID string) (action, roomID string, ok bool) {
	parts := strings.SplitN(customID, ":", 3)
	if len(parts) != 3 || parts[0] != "room" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	switch parts[1] {
	case ActionLock, ActionUnlock, ActionGive, ActionDelete, ActionTransfer:
		return parts[1], parts[2], true
	}
	return "", "", false
}
