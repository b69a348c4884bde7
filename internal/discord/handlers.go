package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BotDeck/db"
	"BotDeck/internal/calendar"

	"github.com/bwmarrin/discordgo"
)

const (
	connectPrefix    = "connect"
	disconnectPrefix = "disconnect"
	calendarPrefix   = "calendar"
	calendarModalID  = calendarPrefix + ":create"

	fieldSummary     = "summary"
	fieldDescription = "description"
	fieldStart       = "start"
	fieldEnd         = "end"

	buttonsPerRow = 5
)

var errInvalidEventInput = errors.New("title, start and end are required")

type HandlerStore interface {
	db.CommandStore
	db.ServiceStore
	db.ConnectionStore
}

type AccountLinker interface {
	Initiate(ctx context.Context, serviceID, userDiscordID string) (string, error)
	Disconnect(ctx context.Context, userDiscordID, serviceID string) error
}

type EventCreator interface {
	Create(ctx context.Context, req calendar.Request) (*calendar.Result, error)
}

type Uptimer interface {
	ActiveReader
	Uptime(now time.Time) time.Duration
}

// Handlers implements the built-in slash commands and their buttons and
// modals.
type Handlers struct {
	store    HandlerStore
	linker   AccountLinker
	calendar EventCreator
	state    Uptimer
	now      func() time.Time
}

func NewHandlers(store HandlerStore, linker AccountLinker, cal EventCreator, state Uptimer) *Handlers {
	return &Handlers{store: store, linker: linker, calendar: cal, state: state, now: time.Now}
}

func (h *Handlers) Register(r *Router) {
	r.Command("ping", h.ping)
	r.Command("help", h.help)
	r.Command("status", h.status)
	r.Command("connect", h.connect)
	r.Command("connections", h.connections)
	r.Command("disconnect", h.disconnect)
	r.Command("calendar", h.openCalendarModal)

	r.Button(connectPrefix, h.connectButton)
	r.Button(disconnectPrefix, h.disconnectButton)
	r.Modal(calendarPrefix, h.submitCalendar)
}

func (h *Handlers) ping(ctx context.Context, inv *Invocation) error {
	return inv.Reply.Send("Pong!", false)
}

func (h *Handlers) help(ctx context.Context, inv *Invocation) error {
	cmds, err := h.store.ListCommands(ctx, true)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	var b strings.Builder
	b.WriteString("**Available commands**\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "`/%s` %s\n", c.Name, c.Description)
	}
	return inv.Reply.Send(b.String(), true)
}

func (h *Handlers) status(ctx context.Context, inv *Invocation) error {
	state := "🟢 Active"
	if !h.state.Active() {
		state = "🔴 Stopped"
	}
	uptime := h.state.Uptime(h.now()).Truncate(time.Second)
	return inv.Reply.Send(fmt.Sprintf("**Status:** %s\n**Uptime:** %s", state, uptime), true)
}

func buttonRows(buttons []discordgo.MessageComponent) []discordgo.MessageComponent {
	rows := make([]discordgo.MessageComponent, 0, (len(buttons)+buttonsPerRow-1)/buttonsPerRow)
	for start := 0; start < len(buttons); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(buttons))
		rows = append(rows, discordgo.ActionsRow{Components: buttons[start:end]})
	}
	return rows
}

func serviceLabel(svc db.Service) string {
	if svc.IconEmoji == "" {
		return svc.DisplayName
	}
	return svc.IconEmoji + " " + svc.DisplayName
}

func (h *Handlers) connect(ctx context.Context, inv *Invocation) error {
	services, err := h.store.ListServices(ctx, true)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}
	if len(services) == 0 {
		return inv.Reply.Send("No services are available to connect right now.", true)
	}

	buttons := make([]discordgo.MessageComponent, 0, len(services))
	for _, svc := range services {
		buttons = append(buttons, discordgo.Button{
			Label:    serviceLabel(svc),
			Style:    discordgo.PrimaryButton,
			CustomID: connectPrefix + ":" + svc.ID,
		})
	}
	return inv.Reply.Send("Choose a service to connect:", true, buttonRows(buttons)...)
}

func (h *Handlers) connectButton(ctx context.Context, inv *Invocation) error {
	authURL, err := h.linker.Initiate(ctx, inv.Arg, inv.UserID)
	if err != nil {
		return err
	}

	link := discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Authorize", Style: discordgo.LinkButton, URL: authURL},
	}}
	return inv.Reply.Send("Open the link below to finish connecting your account. It expires shortly.", true, link)
}

func (h *Handlers) connectedServices(ctx context.Context, userID string) ([]db.Service, map[string]bool, error) {
	services, err := h.store.ListServices(ctx, true)
	if err != nil {
		return nil, nil, fmt.Errorf("list services: %w", err)
	}
	conns, err := h.store.ListConnections(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list connections: %w", err)
	}
	connected := make(map[string]bool, len(conns))
	for _, c := range conns {
		if c.IsConnected {
			connected[c.ServiceID] = true
		}
	}
	return services, connected, nil
}

func (h *Handlers) connections(ctx context.Context, inv *Invocation) error {
	services, connected, err := h.connectedServices(ctx, inv.UserID)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("**Your connections**\n")
	for _, svc := range services {
		mark := "❌ Not connected"
		if connected[svc.ID] {
			mark = "✅ Connected"
		}
		fmt.Fprintf(&b, "%s: %s\n", serviceLabel(svc), mark)
	}
	return inv.Reply.Send(b.String(), true)
}

func (h *Handlers) disconnect(ctx context.Context, inv *Invocation) error {
	services, connected, err := h.connectedServices(ctx, inv.UserID)
	if err != nil {
		return err
	}

	var buttons []discordgo.MessageComponent
	for _, svc := range services {
		if !connected[svc.ID] {
			continue
		}
		buttons = append(buttons, discordgo.Button{
			Label:    serviceLabel(svc),
			Style:    discordgo.DangerButton,
			CustomID: disconnectPrefix + ":" + svc.ID,
		})
	}
	if len(buttons) == 0 {
		return inv.Reply.Send("You have no connected services.", true)
	}
	return inv.Reply.Send("Choose a service to disconnect:", true, buttonRows(buttons)...)
}

func (h *Handlers) disconnectButton(ctx context.Context, inv *Invocation) error {
	if err := h.linker.Disconnect(ctx, inv.UserID, inv.Arg); err != nil {
		return err
	}
	return inv.Reply.Send("✅ Service disconnected.", true)
}

func textInput(id, label, placeholder string, style discordgo.TextInputStyle, required bool) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.TextInput{
			CustomID:    id,
			Label:       label,
			Style:       style,
			Placeholder: placeholder,
			Required:    required,
			MaxLength:   1000,
		},
	}}
}

func (h *Handlers) openCalendarModal(ctx context.Context, inv *Invocation) error {
	return inv.Reply.Modal(calendarModalID, "Create calendar event",
		textInput(fieldSummary, "Title", "Team sync", discordgo.TextInputShort, true),
		textInput(fieldDescription, "Description", "Agenda, links...", discordgo.TextInputParagraph, false),
		textInput(fieldStart, "Start (YYYY-MM-DDTHH:MM:SS)", "2025-10-15T10:00:00", discordgo.TextInputShort, true),
		textInput(fieldEnd, "End (YYYY-MM-DDTHH:MM:SS)", "2025-10-15T11:00:00", discordgo.TextInputShort, true),
	)
}

func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, comp := range data.Components {
		row, ok := comp.(*discordgo.ActionsRow)
		if !ok || row == nil {
			continue
		}
		for _, c := range row.Components {
			if ti, ok := c.(*discordgo.TextInput); ok {
				values[ti.CustomID] = strings.TrimSpace(ti.Value)
			}
		}
	}
	return values
}

func (h *Handlers) submitCalendar(ctx context.Context, inv *Invocation) error {
	if err := inv.Reply.Defer(true); err != nil {
		return err
	}

	values := modalValues(inv.Interaction.ModalSubmitData())
	req := calendar.Request{
		UserDiscordID: inv.UserID,
		EventData: calendar.EventData{
			Summary:       values[fieldSummary],
			Description:   values[fieldDescription],
			StartDateTime: values[fieldStart],
			EndDateTime:   values[fieldEnd],
		},
	}
	if req.EventData.Summary == "" || req.EventData.StartDateTime == "" || req.EventData.EndDateTime == "" {
		return errInvalidEventInput
	}

	res, err := h.calendar.Create(ctx, req)
	if err != nil {
		return err
	}
	return inv.Reply.Edit(fmt.Sprintf("✅ Event created: %s", res.EventLink))
}
