package rooms

import "context"

// ChannelSpec describes the voice channel created for a new room.
type ChannelSpec struct {
	GuildID    string
	CategoryID string
	Name       string
	Capacity   int
}

// Platform is the subset of the chat platform a room needs.
type Platform interface {
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	CreateVoiceChannel(ctx context.Context, spec ChannelSpec) (channelID string, err error)
	// DeleteChannel treats an already deleted channel as success.
	DeleteChannel(ctx context.Context, channelID string) error
	// GrantMember sets a member overwrite allowing caps on the channel.
	GrantMember(ctx context.Context, channelID, userID string, caps Capability) error
	// RevokeMember removes the member overwrite entirely.
	RevokeMember(ctx context.Context, channelID, userID string) error
	// SetMembershipConnect allows or denies connect for the guild's default role.
	SetMembershipConnect(ctx context.Context, guildID, channelID string, allow bool) error
	MemberExists(ctx context.Context, guildID, userID string) (bool, error)
	// Occupancy is the number of members currently in the voice channel.
	Occupancy(ctx context.Context, guildID, channelID string) (int, error)
}

// InviteCounter reports an inviter's current invite count. *invites.Ledger satisfies it.
type InviteCounter interface {
	Count(ctx context.Context, guildID, inviterID string) (int, error)
}

// Announcer posts the room's control panel once the room is provisioned.
type Announcer interface {
	AnnounceRoom(ctx context.Context, r Room) error
}
