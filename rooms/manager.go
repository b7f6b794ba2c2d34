package rooms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/onnwee/invite-rooms/fault"
	"github.com/onnwee/invite-rooms/keylock"
	"github.com/onnwee/invite-rooms/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var snowflake = regexp.MustCompile(`^\d+$`)

// Options configures a Manager.
type Options struct {
	Threshold  int    // invites required to provision, default 15
	CategoryID string // parent category for room channels; empty means top level
}

// Request is a validated provisioning request.
type Request struct {
	Name     string
	Capacity int
}

// Manager runs the room state machine.
type Manager struct {
	store     Store
	platform  Platform
	counter   InviteCounter
	announcer Announcer
	opts      Options
	locks     *keylock.Map
	now       func() time.Time
}

// NewManager wires a Manager. announcer may be nil.
func NewManager(store Store, platform Platform, counter InviteCounter, announcer Announcer, opts Options) *Manager {
	if opts.Threshold <= 0 {
		opts.Threshold = 15
	}
	return &Manager{
		store:     store,
		platform:  platform,
		counter:   counter,
		announcer: announcer,
		opts:      opts,
		locks:     keylock.New(),
		now:       time.Now,
	}
}

// Threshold returns the invite count needed to provision a room.
func (m *Manager) Threshold() int { return m.opts.Threshold }

// Room returns the registered room.
func (m *Manager) Room(ctx context.Context, roomID string) (Room, error) {
	return m.store.Get(ctx, roomID)
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	return telemetry.LoggerWithCorr(ctx).With(slog.String("component", "rooms"))
}

func observe(action string, err error) {
	result := "ok"
	if err != nil {
		result = fault.Classify(err).String()
	}
	telemetry.RoomActions.WithLabelValues(action, result).Inc()
}

// Gate checks whether userID may provision a room: the invite count must reach the
// threshold and the user must not already own a room in the guild.
func (m *Manager) Gate(ctx context.Context, guildID, userID string) error {
	n, err := m.counter.Count(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("count invites: %w", err)
	}
	if n < m.opts.Threshold {
		return ErrBelowThreshold
	}
	_, owns, err := m.store.FindByOwner(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("find room by owner: %w", err)
	}
	if owns {
		return ErrAlreadyOwnsRoom
	}
	return nil
}

// ParseRequest validates the raw form values.
func ParseRequest(name, capacity string) (Request, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLen {
		return Request{}, ErrInvalidName
	}
	n, err := strconv.Atoi(strings.TrimSpace(capacity))
	if err != nil || n < MinCapacity || n > MaxCapacity {
		return Request{}, ErrInvalidCapacity
	}
	return Request{Name: name, Capacity: n}, nil
}

// Provision creates the room channel, grants the owner the control capabilities and
// registers the room. If granting or registering fails, the channel is deleted again.
func (m *Manager) Provision(ctx context.Context, guildID, ownerID string, req Request) (room Room, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rooms", "rooms.provision",
		attribute.String("guild_id", guildID), attribute.String("owner_id", ownerID))
	defer span.End()
	defer func() {
		observe("provision", err)
		if fault.IsUpstream(err) {
			telemetry.RecordError(span, err)
		}
	}()

	release, err := m.locks.Lock(ctx, "owner:"+guildID+":"+ownerID)
	if err != nil {
		return Room{}, err
	}
	defer release()

	// re-checked under the lock: a double-submitted form must not yield two rooms
	if err := m.Gate(ctx, guildID, ownerID); err != nil {
		return Room{}, err
	}

	if m.opts.CategoryID != "" {
		ok, err := m.platform.ChannelExists(ctx, m.opts.CategoryID)
		if err != nil {
			return Room{}, fmt.Errorf("check category: %w", err)
		}
		if !ok {
			return Room{}, ErrCategoryNotFound
		}
	}

	channelID, err := m.platform.CreateVoiceChannel(ctx, ChannelSpec{
		GuildID:    guildID,
		CategoryID: m.opts.CategoryID,
		Name:       req.Name,
		Capacity:   req.Capacity,
	})
	if err != nil {
		return Room{}, fmt.Errorf("create voice channel: %w", err)
	}
	log := m.log(ctx).With(slog.String("guild", guildID), slog.String("owner", ownerID), slog.String("room", channelID))

	if err := m.platform.GrantMember(ctx, channelID, ownerID, ControlCapabilities); err != nil {
		m.discardChannel(ctx, channelID)
		return Room{}, fmt.Errorf("grant owner: %w", err)
	}

	room = Room{
		ID:        channelID,
		GuildID:   guildID,
		OwnerID:   ownerID,
		Name:      req.Name,
		Capacity:  req.Capacity,
		CreatedAt: m.now().UTC(),
	}
	if err := m.store.Create(ctx, room); err != nil {
		m.discardChannel(ctx, channelID)
		return Room{}, fmt.Errorf("register room: %w", err)
	}
	telemetry.ActiveRooms.Inc()
	log.Info("room provisioned", slog.String("name", req.Name), slog.Int("capacity", req.Capacity))

	if m.announcer != nil {
		if err := m.announcer.AnnounceRoom(ctx, room); err != nil {
			log.Warn("room announcement failed", slog.Any("err", err))
		}
	}
	telemetry.SetSpanSuccess(span)
	return room, nil
}

func (m *Manager) discardChannel(ctx context.Context, channelID string) {
	if err := m.platform.DeleteChannel(ctx, channelID); err != nil {
		m.log(ctx).Error("orphaned room channel", slog.String("room", channelID), slog.Any("err", err))
	}
}

// ownedRoom loads the room and checks actorID owns it. Callers hold the room lock.
func (m *Manager) ownedRoom(ctx context.Context, roomID, actorID string) (Room, error) {
	room, err := m.store.Get(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	if room.OwnerID != actorID {
		return Room{}, ErrNotOwner
	}
	return room, nil
}

func (m *Manager) lockRoom(ctx context.Context, roomID string) (func(), error) {
	return m.locks.Lock(ctx, "room:"+roomID)
}

// Lock denies connect to the guild's default role. The owner's own overwrite is kept.
func (m *Manager) Lock(ctx context.Context, roomID, actorID string) (Room, error) {
	room, err := m.setLocked(ctx, roomID, actorID, true)
	observe("lock", err)
	return room, err
}

// Unlock restores connect for the guild's default role.
func (m *Manager) Unlock(ctx context.Context, roomID, actorID string) (Room, error) {
	room, err := m.setLocked(ctx, roomID, actorID, false)
	observe("unlock", err)
	return room, err
}

func (m *Manager) setLocked(ctx context.Context, roomID, actorID string, locked bool) (Room, error) {
	release, err := m.lockRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	defer release()

	room, err := m.ownedRoom(ctx, roomID, actorID)
	if err != nil {
		return Room{}, err
	}
	if err := m.requireChannel(ctx, room.ID); err != nil {
		return Room{}, err
	}
	if err := m.platform.SetMembershipConnect(ctx, room.GuildID, room.ID, !locked); err != nil {
		return Room{}, fmt.Errorf("set connect: %w", err)
	}
	if err := m.store.SetLocked(ctx, room.ID, locked); err != nil {
		if rerr := m.platform.SetMembershipConnect(ctx, room.GuildID, room.ID, locked); rerr != nil {
			m.log(ctx).Error("lock state diverged from registry", slog.String("room", room.ID), slog.Any("err", rerr))
		}
		return Room{}, fmt.Errorf("persist lock state: %w", err)
	}
	room.Locked = locked
	m.log(ctx).Info("room lock changed", slog.String("room", room.ID), slog.Bool("locked", locked))
	return room, nil
}

func (m *Manager) requireChannel(ctx context.Context, channelID string) error {
	ok, err := m.platform.ChannelExists(ctx, channelID)
	if err != nil {
		return fmt.Errorf("check room channel: %w", err)
	}
	if !ok {
		return ErrChannelMissing
	}
	return nil
}

// AuthorizeTransfer checks actorID may pick a new owner before the target form is shown.
func (m *Manager) AuthorizeTransfer(ctx context.Context, roomID, actorID string) (Room, error) {
	room, err := m.ownedRoom(ctx, roomID, actorID)
	if err != nil {
		observe("transfer_authorize", err)
	}
	return room, err
}

// Transfer hands the room to target. Capability edits happen first: the old owner's
// overwrite is removed, the new owner is granted the control capabilities, and only
// then does the registry record the new owner. A failed grant restores the old owner.
func (m *Manager) Transfer(ctx context.Context, roomID, actorID, target string) (room Room, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rooms", "rooms.transfer",
		attribute.String("room_id", roomID), attribute.String("actor_id", actorID))
	defer span.End()
	defer func() {
		observe("transfer", err)
		if fault.IsUpstream(err) {
			telemetry.RecordError(span, err)
		}
	}()

	target = strings.TrimSpace(target)
	if !snowflake.MatchString(target) {
		return Room{}, ErrInvalidTarget
	}

	release, err := m.lockRoom(ctx, roomID)
	if err != nil {
		return Room{}, err
	}
	defer release()

	room, err = m.ownedRoom(ctx, roomID, actorID)
	if err != nil {
		return Room{}, err
	}
	if target == actorID {
		return Room{}, ErrSelfTransfer
	}
	member, err := m.platform.MemberExists(ctx, room.GuildID, target)
	if err != nil {
		return Room{}, fmt.Errorf("fetch member: %w", err)
	}
	if !member {
		return Room{}, ErrTargetNotMember
	}
	if _, owns, err := m.store.FindByOwner(ctx, room.GuildID, target); err != nil {
		return Room{}, fmt.Errorf("find room by owner: %w", err)
	} else if owns {
		return Room{}, ErrTargetOwnsRoom
	}
	if err := m.requireChannel(ctx, room.ID); err != nil {
		return Room{}, err
	}

	log := m.log(ctx).With(slog.String("room", room.ID), slog.String("from", actorID), slog.String("to", target))

	if err := m.platform.RevokeMember(ctx, room.ID, actorID); err != nil {
		return Room{}, fmt.Errorf("revoke owner: %w", err)
	}
	if err := m.platform.GrantMember(ctx, room.ID, target, ControlCapabilities); err != nil {
		m.restoreOwner(ctx, log, room.ID, actorID, "")
		return Room{}, fmt.Errorf("grant new owner: %w", err)
	}
	if err := m.store.SetOwner(ctx, room.ID, actorID, target); err != nil {
		m.restoreOwner(ctx, log, room.ID, actorID, target)
		if errors.Is(err, ErrNotOwner) {
			return Room{}, err
		}
		return Room{}, fmt.Errorf("persist owner: %w", err)
	}

	room.OwnerID = target
	log.Info("room transferred")
	telemetry.SetSpanSuccess(span)
	return room, nil
}

// restoreOwner re-grants the previous owner and, when set, revokes the would-be owner.
func (m *Manager) restoreOwner(ctx context.Context, log *slog.Logger, roomID, owner, revoke string) {
	if revoke != "" {
		if err := m.platform.RevokeMember(ctx, roomID, revoke); err != nil {
			log.Error("revert new owner grant failed", slog.Any("err", err))
		}
	}
	if err := m.platform.GrantMember(ctx, roomID, owner, ControlCapabilities); err != nil {
		log.Error("restore owner grant failed", slog.Any("err", err))
	}
}

// Teardown deletes the room channel and its registry entry. Owner only.
func (m *Manager) Teardown(ctx context.Context, roomID, actorID string) error {
	release, err := m.lockRoom(ctx, roomID)
	if err != nil {
		return err
	}
	defer release()

	room, err := m.ownedRoom(ctx, roomID, actorID)
	if err == nil {
		err = m.remove(ctx, room, "owner")
	}
	observe("teardown", err)
	return err
}

// ChannelDeleted drops the registry entry for a room whose channel was deleted
// outside the bot.
func (m *Manager) ChannelDeleted(ctx context.Context, channelID string) error {
	release, err := m.lockRoom(ctx, channelID)
	if err != nil {
		return err
	}
	defer release()

	room, err := m.store.Get(ctx, channelID)
	if errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := m.store.Delete(ctx, room.ID); err != nil {
		return fmt.Errorf("unregister room: %w", err)
	}
	telemetry.ActiveRooms.Dec()
	m.log(ctx).Info("room channel deleted externally", slog.String("room", room.ID), slog.String("owner", room.OwnerID))
	return nil
}

// remove deletes the channel first so a registry entry never outlives a live room it
// could no longer control. Callers hold the room lock.
func (m *Manager) remove(ctx context.Context, room Room, reason string) error {
	if err := m.platform.DeleteChannel(ctx, room.ID); err != nil {
		return fmt.Errorf("delete room channel: %w", err)
	}
	if err := m.store.Delete(ctx, room.ID); err != nil {
		return fmt.Errorf("unregister room: %w", err)
	}
	telemetry.ActiveRooms.Dec()
	m.log(ctx).Info("room torn down", slog.String("room", room.ID), slog.String("owner", room.OwnerID), slog.String("reason", reason))
	return nil
}
