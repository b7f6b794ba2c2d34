package invites

// Invite is one live invite link as reported by the platform.
type Invite struct {
	Code       string
	Uses       int
	InviterID  string // empty for vanity and widget invites
	InviterTag string
}

// Snapshot maps invite code to the last observed use count.
type Snapshot map[string]int

// SnapshotOf builds a snapshot from a fetched invite list.
func SnapshotOf(current []Invite) Snapshot {
	s := make(Snapshot, len(current))
	for _, inv := range current {
		s[inv.Code] = inv.Uses
	}
	return s
}

// Attribute returns the first invite in current whose use count strictly exceeds the
// count recorded in prior. Codes missing from prior count as zero, so a link created
// after the last refresh is attributable. Invites without a resolvable inviter are
// skipped: when the only increased code is a vanity link, nothing is attributed.
//
// When several codes increased (concurrent joins between two fetches) the first one
// in fetch order wins.
func Attribute(prior Snapshot, current []Invite) (Invite, bool) {
	for _, inv := range current {
		if inv.Uses <= prior[inv.Code] {
			continue
		}
		if inv.InviterID == "" {
			return Invite{}, false
		}
		return inv, true
	}
	return Invite{}, false
}
