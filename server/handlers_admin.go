package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/telemetry"
)

// HandleAdminInvites returns one inviter's record.
// GET /admin/invites?guild_id=&user_id=
func (h *Handlers) HandleAdminInvites(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	guildID, userID := q.Get("guild_id"), q.Get("user_id")
	if guildID == "" || userID == "" {
		http.Error(w, "guild_id and user_id are required", http.StatusBadRequest)
		return
	}

	rec, err := h.ledger.Query(r.Context(), guildID, userID)
	if errors.Is(err, invites.ErrNoInvites) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no invite record", "guild_id": guildID, "user_id": userID})
		return
	}
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("admin invite query failed", slog.String("component", "http"), slog.String("guild", guildID), slog.Any("err", err))
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}

	invited := rec.InvitedUsers
	if invited == nil {
		invited = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"guild_id":      rec.GuildID,
		"user_id":       rec.InviterID,
		"invite_count":  rec.InviteCount,
		"invited_users": invited,
		"updated_at":    rec.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// HandleAdminInvitesReset deletes every record in a guild.
// POST /admin/invites/reset?guild_id=
func (h *Handlers) HandleAdminInvitesReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	guildID := r.URL.Query().Get("guild_id")
	if guildID == "" {
		http.Error(w, "guild_id is required", http.StatusBadRequest)
		return
	}

	n, err := h.ledger.ResetAll(r.Context(), guildID)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("admin invite reset failed", slog.String("component", "http"), slog.String("guild", guildID), slog.Any("err", err))
		http.Error(w, "reset failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "guild_id": guildID, "deleted": n})
}
