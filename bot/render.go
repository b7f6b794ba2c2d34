package bot

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/invite-rooms/present"
)

const maxButtonsPerRow = 5

func embed(c present.Card) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Description,
		Color:       c.Color,
	}
	if c.ImageURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: c.ImageURL}
	}
	if c.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.ThumbnailURL}
	}
	if c.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: c.Footer}
	}
	if !c.Timestamp.IsZero() {
		e.Timestamp = c.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, f := range c.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

func buttonStyle(s present.ButtonStyle) discordgo.ButtonStyle {
	switch s {
	case present.Secondary:
		return discordgo.SecondaryButton
	case present.Danger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// components lays buttons out in action rows of at most five.
func components(buttons []present.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons); start += maxButtonsPerRow {
		end := min(start+maxButtonsPerRow, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, discordgo.Button{
				Label:    b.Label,
				Style:    buttonStyle(b.Style),
				CustomID: b.ID,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func messageSend(c present.Card) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed(c)},
		Components: components(c.Buttons),
	}
}

// modal renders a form; each input gets its own row as Discord requires.
func modal(f present.Form) *discordgo.InteractionResponse {
	var rows []discordgo.MessageComponent
	for _, in := range f.Inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    in.ID,
				Label:       in.Label,
				Style:       discordgo.TextInputShort,
				Placeholder: in.Placeholder,
				Required:    in.Required,
				MinLength:   in.MinLength,
				MaxLength:   in.MaxLength,
			},
		}})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   f.ID,
			Title:      f.Title,
			Components: rows,
		},
	}
}

func ephemeralText(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func ephemeralCard(c present.Card) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed(c)},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}
}

func deferredEphemeral() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}
}

// followUpEdit carries a message response over to an edit of the deferred reply.
func followUpEdit(resp *discordgo.InteractionResponse) *discordgo.WebhookEdit {
	text, embeds := "", []*discordgo.MessageEmbed{}
	if resp != nil && resp.Data != nil {
		text = resp.Data.Content
		if resp.Data.Embeds != nil {
			embeds = resp.Data.Embeds
		}
	}
	return &discordgo.WebhookEdit{Content: &text, Embeds: &embeds}
}

// modalValues collects text input values keyed by custom id.
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	out := make(map[string]string)
	for _, c := range data.Components {
		var inner []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			inner = row.Components
		case discordgo.ActionsRow:
			inner = row.Components
		}
		for _, ic := range inner {
			switch in := ic.(type) {
			case *discordgo.TextInput:
				out[in.CustomID] = in.Value
			case discordgo.TextInput:
				out[in.CustomID] = in.Value
			}
		}
	}
	return out
}
