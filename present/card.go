// Package present builds the user-facing cards and forms without depending on the chat
// transport. The bot package renders them.
package present

import "time"

// Colors used by the cards.
const (
	ColorGreen = 0x00FF00
	ColorRed   = 0xFF0000
)

// ButtonStyle is a transport-neutral button emphasis.
type ButtonStyle int

const (
	Primary ButtonStyle = iota
	Secondary
	Danger
)

// Field is a titled value on a card.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Button triggers an interaction carrying ID.
type Button struct {
	ID    string
	Label string
	Style ButtonStyle
}

// Card is a rich message.
type Card struct {
	Title        string
	Description  string
	Color        int
	ImageURL     string
	ThumbnailURL string
	Footer       string
	Fields       []Field
	Timestamp    time.Time
	Buttons      []Button
}

// Input is one text field on a Form.
type Input struct {
	ID          string
	Label       string
	Placeholder string
	Required    bool
	MinLength   int
	MaxLength   int
}

// Form collects text input from the actor.
type Form struct {
	ID     string
	Title  string
	Inputs []Input
}
