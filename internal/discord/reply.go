package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrAlreadyResponded = errors.New("interaction already responded to")
	ErrNotResponded     = errors.New("interaction has no response to edit")
)

// Responder is the part of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Reply allows exactly one initial response per interaction. After Send or
// Defer the response can be edited any number of times; a modal cannot.
type Reply struct {
	api         Responder
	interaction *discordgo.Interaction
	responded   bool
	editable    bool
}

func NewReply(api Responder, interaction *discordgo.Interaction) *Reply {
	return &Reply{api: api, interaction: interaction}
}

func (r *Reply) Responded() bool {
	return r.responded
}

func (r *Reply) respond(resp *discordgo.InteractionResponse) error {
	return r.respondWith(resp, true)
}

func (r *Reply) respondWith(resp *discordgo.InteractionResponse, editable bool) error {
	if r.responded {
		return ErrAlreadyResponded
	}
	if err := r.api.InteractionRespond(r.interaction, resp); err != nil {
		return err
	}
	r.responded = true
	r.editable = editable
	return nil
}

func (r *Reply) Send(content string, ephemeral bool, components ...discordgo.MessageComponent) error {
	data := &discordgo.InteractionResponseData{Content: content, Components: components}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (r *Reply) Defer(ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return r.respond(resp)
}

func (r *Reply) Modal(customID, title string, components ...discordgo.MessageComponent) error {
	return r.respondWith(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: components,
		},
	}, false)
}

func (r *Reply) Edit(content string) error {
	if !r.editable {
		return ErrNotResponded
	}
	_, err := r.api.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{Content: &content})
	return err
}
