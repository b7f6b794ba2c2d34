package bot

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/invite-rooms/fault"
	"github.com/onnwee/invite-rooms/present"
	"github.com/onnwee/invite-rooms/rooms"
	"github.com/onnwee/invite-rooms/telemetry"
)

// Slash command names.
const (
	CommandInvites = "invites"
	CommandReset   = "invites-reset"

	optionUser = "user"
)

var (
	errForbidden          = fault.New(fault.Authorization, "admin.forbidden", "administrator permission required")
	errGuildOnly          = fault.New(fault.Validation, "error.guild_only", "interaction outside a guild")
	errUnknownInteraction = fault.New(fault.Validation, "error.generic", "unrecognized interaction")
)

// commands are the slash commands registered on Ready, described in the default locale
// with Turkish localizations.
func (b *Bot) commands() []*discordgo.ApplicationCommand {
	admin := int64(discordgo.PermissionAdministrator)
	localized := func(key string) *map[discordgo.Locale]string {
		return &map[discordgo.Locale]string{discordgo.Turkish: b.view.Text("tr", key)}
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandInvites,
			Description:              b.view.Text("", "command.invites"),
			DescriptionLocalizations: localized("command.invites"),
			Options: []*discordgo.ApplicationCommandOption{{
				Type:                     discordgo.ApplicationCommandOptionUser,
				Name:                     optionUser,
				Description:              b.view.Text("", "command.invites.user"),
				DescriptionLocalizations: *localized("command.invites.user"),
				Required:                 false,
			}},
		},
		{
			Name:                     CommandReset,
			Description:              b.view.Text("", "command.reset"),
			DescriptionLocalizations: localized("command.reset"),
			DefaultMemberPermissions: &admin,
		},
	}
}

// respond turns an interaction into the response shown to the actor. Classified errors
// become their localized message; upstream errors are logged and shown generically.
func (b *Bot) respond(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	userLocale := string(i.Locale)
	route, resp, err := b.dispatch(ctx, i)
	result := "ok"
	if err != nil {
		class := fault.Classify(err)
		result = class.String()
		log := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"), slog.String("route", route), slog.String("actor", actorID(i)))
		if class == fault.Upstream {
			log.Error("interaction failed", slog.Any("err", err))
		} else {
			log.Debug("interaction rejected", slog.String("class", result), slog.Any("err", err))
		}
		resp = ephemeralText(b.view.Rejection(userLocale, err))
	}
	telemetry.InteractionsHandled.WithLabelValues(route, result).Inc()
	return resp
}

func actorID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func (b *Bot) dispatch(ctx context.Context, i *discordgo.Interaction) (string, *discordgo.InteractionResponse, error) {
	if i.GuildID == "" || actorID(i) == "" {
		return "dm", nil, errGuildOnly
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		return b.command(ctx, i)
	case discordgo.InteractionMessageComponent:
		return b.component(ctx, i)
	case discordgo.InteractionModalSubmit:
		return b.modalSubmit(ctx, i)
	}
	return "unknown", nil, errUnknownInteraction
}

func (b *Bot) command(ctx context.Context, i *discordgo.Interaction) (string, *discordgo.InteractionResponse, error) {
	data := i.ApplicationCommandData()
	userLocale := string(i.Locale)
	switch data.Name {
	case CommandInvites:
		target := actorID(i)
		for _, opt := range data.Options {
			if opt.Name == optionUser {
				if id, ok := opt.Value.(string); ok && id != "" {
					target = id
				}
			}
		}
		rec, err := b.ledger.Query(ctx, i.GuildID, target)
		if err != nil {
			return "command.invites", nil, err
		}
		return "command.invites", ephemeralCard(b.view.InviteStats(userLocale, rec)), nil
	case CommandReset:
		if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
			return "command.reset", nil, errForbidden
		}
		n, err := b.ledger.ResetAll(ctx, i.GuildID)
		if err != nil {
			return "command.reset", nil, err
		}
		telemetry.LoggerWithCorr(ctx).Info("invite records reset",
			slog.String("guild", i.GuildID), slog.String("actor", actorID(i)), slog.Int64("records", n))
		return "command.reset", ephemeralText(b.view.Text(userLocale, "reset.done", n)), nil
	}
	return "command.unknown", nil, errUnknownInteraction
}

func (b *Bot) component(ctx context.Context, i *discordgo.Interaction) (string, *discordgo.InteractionResponse, error) {
	customID := i.MessageComponentData().CustomID
	userLocale := string(i.Locale)
	actor := actorID(i)

	if customID == present.PanelCreate {
		if err := b.rooms.Gate(ctx, i.GuildID, actor); err != nil {
			return "panel.create", nil, err
		}
		return "panel.create", modal(b.view.RoomRequestForm(userLocale)), nil
	}

	action, roomID, ok := present.ParseRoomID(customID)
	if !ok {
		return "component.unknown", nil, errUnknownInteraction
	}
	route := "room." + action
	switch action {
	case present.ActionLock:
		if _, err := b.rooms.Lock(ctx, roomID, actor); err != nil {
			return route, nil, err
		}
		return route, ephemeralText(b.view.Text(userLocale, "room.locked")), nil
	case present.ActionUnlock:
		if _, err := b.rooms.Unlock(ctx, roomID, actor); err != nil {
			return route, nil, err
		}
		return route, ephemeralText(b.view.Text(userLocale, "room.unlocked")), nil
	case present.ActionGive:
		if _, err := b.rooms.AuthorizeTransfer(ctx, roomID, actor); err != nil {
			return route, nil, err
		}
		return route, modal(b.view.TransferForm(userLocale, roomID)), nil
	case present.ActionDelete:
		if err := b.rooms.Teardown(ctx, roomID, actor); err != nil {
			return route, nil, err
		}
		return route, ephemeralText(b.view.Text(userLocale, "room.deleted")), nil
	}
	return route, nil, errUnknownInteraction
}

func (b *Bot) modalSubmit(ctx context.Context, i *discordgo.Interaction) (string, *discordgo.InteractionResponse, error) {
	data := i.ModalSubmitData()
	values := modalValues(data)
	userLocale := string(i.Locale)
	actor := actorID(i)

	if data.CustomID == present.RoomForm {
		req, err := rooms.ParseRequest(values[present.InputRoomName], values[present.InputRoomCapacity])
		if err != nil {
			return "room.form", nil, err
		}
		if _, err := b.rooms.Provision(ctx, i.GuildID, actor, req); err != nil {
			return "room.form", nil, err
		}
		return "room.form", ephemeralText(b.view.Text(userLocale, "room.created")), nil
	}

	action, roomID, ok := present.ParseRoomID(data.CustomID)
	if !ok || action != present.ActionTransfer {
		return "modal.unknown", nil, errUnknownInteraction
	}
	room, err := b.rooms.Transfer(ctx, roomID, actor, values[present.InputNewOwner])
	if err != nil {
		return "room.transfer", nil, err
	}
	return "room.transfer", ephemeralText(b.view.Text(userLocale, "room.transferred", present.Mention(room.OwnerID))), nil
}
