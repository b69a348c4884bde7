package discord

import (
	"context"
	"errors"
	"sync"
	"time"

	"BotDeck/internal/calendar"

	"github.com/bwmarrin/discordgo"
)

type fakeResponder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []string
}

func (f *fakeResponder) InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(i *discordgo.Interaction, edit *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if edit.Content != nil {
		f.edits = append(f.edits, *edit.Content)
	}
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) last() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

type registrarCall struct {
	guildID string
	names   []string
}

// fakeRegistrar keeps the registered set per scope the way bulk overwrite
// does on the platform.
type fakeRegistrar struct {
	scopes  map[string][]string
	calls   []registrarCall
	failAll bool
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{scopes: make(map[string][]string)}
}

func (f *fakeRegistrar) ApplicationCommandBulkOverwrite(appID, guildID string, cmds []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	f.calls = append(f.calls, registrarCall{guildID: guildID, names: names})
	if f.failAll {
		return nil, errors.New("discord unavailable")
	}
	f.scopes[guildID] = names
	return cmds, nil
}

type fixedState struct{ active bool }

func (s fixedState) Active() bool                       { return s.active }
func (s fixedState) Uptime(now time.Time) time.Duration { return 42 * time.Minute }

type fakeLinker struct {
	initiated    []string
	disconnected []string
}

func (f *fakeLinker) Initiate(ctx context.Context, serviceID, userDiscordID string) (string, error) {
	f.initiated = append(f.initiated, serviceID+"/"+userDiscordID)
	return "https://accounts.example.com/auth?state=abc", nil
}

func (f *fakeLinker) Disconnect(ctx context.Context, userDiscordID, serviceID string) error {
	f.disconnected = append(f.disconnected, serviceID+"/"+userDiscordID)
	return nil
}

type fakeCalendar struct {
	requests []calendar.Request
	err      error
}

func (f *fakeCalendar) Create(ctx context.Context, req calendar.Request) (*calendar.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &calendar.Result{Success: true, EventID: "evt", EventLink: "https://calendar.example.com/evt"}, nil
}

func member(userID string) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID}}
}

func commandInteraction(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "guild-1",
		Member:  member("user-1"),
		Data:    discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func buttonInteraction(customID string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:    discordgo.InteractionMessageComponent,
		GuildID: "guild-1",
		Member:  member("user-1"),
		Data:    discordgo.MessageComponentInteractionData{CustomID: customID},
	}
}

func modalInteraction(customID string, values map[string]string) *discordgo.Interaction {
	rows := make([]discordgo.MessageComponent, 0, len(values))
	for id, v := range values {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: id, Value: v},
		}})
	}
	return &discordgo.Interaction{
		Type:    discordgo.InteractionModalSubmit,
		GuildID: "guild-1",
		Member:  member("user-1"),
		Data:    discordgo.ModalSubmitInteractionData{CustomID: customID, Components: rows},
	}
}
