package present

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/onnwee/invite-rooms/invites"
	"github.com/onnwee/invite-rooms/locale"
	"github.com/onnwee/invite-rooms/rooms"
)

func newBuilder() *Builder {
	return NewBuilder(locale.New("en"), Options{PanelImageURL: "https://img/panel.png", RoomImageURL: "https://img/room.png", Threshold: 15})
}

func TestPanelCard(t *testing.T) {
	c := newBuilder().Panel()
	if !strings.Contains(c.Description, "15") {
		t.Fatalf("panel must mention the threshold: %q", c.Description)
	}
	if len(c.Buttons) != 1 || c.Buttons[0].ID != PanelCreate {
		t.Fatalf("unexpected buttons %+v", c.Buttons)
	}
	if c.ImageURL != "https://img/panel.png" {
		t.Fatalf("image = %q", c.ImageURL)
	}
}

func TestRoomControlsCarryRoomID(t *testing.T) {
	c := newBuilder().RoomControls(rooms.Room{ID: "555", OwnerID: "111"})
	want := []string{"room:lock:555", "room:unlock:555", "room:give:555", "room:delete:555"}
	if len(c.Buttons) != len(want) {
		t.Fatalf("buttons = %d, want %d", len(c.Buttons), len(want))
	}
	for i, id := range want {
		if c.Buttons[i].ID != id {
			t.Fatalf("button %d id = %q, want %q", i, c.Buttons[i].ID, id)
		}
	}
	if !strings.Contains(c.Description, "<@111>") {
		t.Fatalf("description should mention owner: %q", c.Description)
	}
}

func TestForms(t *testing.T) {
	b := newBuilder()
	rf := b.RoomRequestForm("tr")
	if rf.ID != RoomForm || len(rf.Inputs) != 2 || rf.Title != "Özel Oda Oluşturma" {
		t.Fatalf("unexpected room form %+v", rf)
	}
	if rf.Inputs[1].Label != "Kişi Sayısı (1-99)" {
		t.Fatalf("capacity label = %q", rf.Inputs[1].Label)
	}
	tf := b.TransferForm("en", "555")
	if tf.ID != "room:transfer:555" || tf.Inputs[0].ID != InputNewOwner {
		t.Fatalf("unexpected transfer form %+v", tf)
	}
}

func TestJoinAndLeaveNotices(t *testing.T) {
	b := newBuilder()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	join := b.JoinNotice(invites.JoinNotice{
		GuildName: "Guild",
		Member:    invites.Member{ID: "9", Tag: "newbie", AvatarURL: "https://a/9.png"},
		Invite:    invites.Invite{Code: "B", InviterID: "2", InviterTag: "alice"},
		Record:    invites.Record{InviteCount: 3},
		At:        at,
	})
	if join.Color != ColorGreen || join.ThumbnailURL != "https://a/9.png" || !join.Timestamp.Equal(at) {
		t.Fatalf("unexpected join card %+v", join)
	}
	if join.Fields[0].Value != "alice" || join.Fields[1].Value != "Guild" || join.Fields[2].Value != "3" {
		t.Fatalf("unexpected join fields %+v", join.Fields)
	}

	leave := b.LeaveNotice(invites.LeaveNotice{GuildName: "Guild", Member: invites.Member{Tag: "newbie"}, InviterID: "2"})
	if leave.Color != ColorRed || leave.Fields[0].Value != "<@2>" {
		t.Fatalf("unexpected leave card %+v", leave)
	}
}

func TestInviteStats(t *testing.T) {
	c := newBuilder().InviteStats("en", invites.Record{InviterID: "7", InviteCount: 12})
	if c.Fields[0].Value != "<@7>" || c.Fields[1].Value != "12" {
		t.Fatalf("unexpected stats %+v", c.Fields)
	}
}

func TestRejection(t *testing.T) {
	b := newBuilder()
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"threshold carries count", rooms.ErrBelowThreshold, "You need 15 invites to create a private room."},
		{"wrapped key", fmt.Errorf("transfer: %w", rooms.ErrNotOwner), "You cannot do this because you do not own this room."},
		{"upstream is generic", errors.New("connection reset"), "Something went wrong. Please try again later."},
		{"not found", invites.ErrNoInvites, "No invites recorded for this user."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Rejection("en", tt.err); got != tt.want {
				t.Fatalf("Rejection = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		in         string
		wantAction string
		wantRoom   string
		wantOK     bool
	}{
		{"room:lock:123", ActionLock, "123", true},
		{"room:transfer:9", ActionTransfer, "9", true},
		{"room:explode:9", "", "", false},
		{"room:lock:", "", "", false},
		{"panel:create", "", "", false},
		{"lock", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			action, room, ok := ParseRoomID(tt.in)
			if ok != tt.wantOK || action != tt.wantAction || room != tt.wantRoom {
				t.Fatalf("ParseRoomID(%q) = %q, %q, %v", tt.in, action, room, ok)
			}
		})
	}
	if a, r, ok := ParseRoomID(RoomID(ActionGive, "42")); !ok || a != ActionGive || r != "42" {
		t.Fatal("RoomID must round trip")
	}
}
