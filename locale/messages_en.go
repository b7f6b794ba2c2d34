package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	// Room panel
	message.SetString(lang, "panel.title", "Private Room System")
	message.SetString(lang, "panel.description", "Press the button below to create a private voice room. You can create one once you reach %d invites.")
	message.SetString(lang, "panel.button", "Create private room")
	message.SetString(lang, "panel.footer", "Private Room System")

	// Room form
	message.SetString(lang, "room.form.title", "Create private room")
	message.SetString(lang, "room.form.name", "Room name")
	message.SetString(lang, "room.form.capacity", "Capacity (%d-%d)")

	// Room controls
	message.SetString(lang, "room.panel.title", "Private Room System")
	message.SetString(lang, "room.panel.description", "%s, use the buttons below to manage your room.")
	message.SetString(lang, "room.button.lock", "Lock")
	message.SetString(lang, "room.button.unlock", "Unlock")
	message.SetString(lang, "room.button.give", "Give owner")
	message.SetString(lang, "room.button.delete", "Delete")
	message.SetString(lang, "room.created", "Your private room was created!")
	message.SetString(lang, "room.locked", "Your room is now locked.")
	message.SetString(lang, "room.unlocked", "Your room is now unlocked.")
	message.SetString(lang, "room.transferred", "%s now owns your room!")
	message.SetString(lang, "room.deleted", "Your room was deleted.")

	// Transfer form
	message.SetString(lang, "transfer.form.title", "Transfer room ownership")
	message.SetString(lang, "transfer.form.label", "New owner's user ID")
	message.SetString(lang, "transfer.form.placeholder", "Enter a user ID")

	// Log channel
	message.SetString(lang, "join.title", "New member joined!")
	message.SetString(lang, "join.description", "%s joined the server.")
	message.SetString(lang, "leave.title", "A member left!")
	message.SetString(lang, "leave.description", "%s left the server.")
	message.SetString(lang, "log.inviter", "Invited by")
	message.SetString(lang, "log.guild", "Server")
	message.SetString(lang, "log.count", "Invites")

	// Invite commands
	message.SetString(lang, "stats.title", "Invite info")
	message.SetString(lang, "stats.user", "User")
	message.SetString(lang, "stats.total", "Total invites")
	message.SetString(lang, "reset.done", "All invites were reset (%d records).")
	message.SetString(lang, "command.invites", "Show a user's invite count")
	message.SetString(lang, "command.invites.user", "User to look up (defaults to you)")
	message.SetString(lang, "command.reset", "Reset every invite record in this server")

	// Rejections
	message.SetString(lang, "rooms.not_owner", "You cannot do this because you do not own this room.")
	message.SetString(lang, "rooms.below_threshold", "You need %d invites to create a private room.")
	message.SetString(lang, "rooms.already_owns", "You already have a private room.")
	message.SetString(lang, "rooms.invalid_name", "Invalid room name! Use 1-100 characters.")
	message.SetString(lang, "rooms.invalid_capacity", "Invalid capacity! Enter a value between 1 and 99.")
	message.SetString(lang, "rooms.invalid_target", "Invalid ID format! Enter a user ID made of digits only.")
	message.SetString(lang, "rooms.self_transfer", "You already own this room.")
	message.SetString(lang, "rooms.target_not_member", "Invalid user ID. Please enter the ID of a server member.")
	message.SetString(lang, "rooms.target_owns", "That user already owns a private room.")
	message.SetString(lang, "rooms.not_found", "Room not found. Please try again.")
	message.SetString(lang, "rooms.channel_missing", "Channel not found.")
	message.SetString(lang, "rooms.category_missing", "Room category not found. Please check the category ID.")
	message.SetString(lang, "invites.not_found", "No invites recorded for this user.")
	message.SetString(lang, "admin.forbidden", "You do not have permission to use this command.")
	message.SetString(lang, "error.guild_only", "This can only be used inside a server.")
	message.SetString(lang, "error.generic", "Something went wrong. Please try again later.")
}
