package discord

import (
	"context"
	"errors"
	"strings"
	"time"

	"BotDeck/db"
	"BotDeck/internal/calendar"
	"BotDeck/internal/oauth"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	StoppedMessage        = "🛑 Bot is currently stopped by administrator."
	NotImplementedMessage = "This command is not implemented yet."
	genericErrorMessage   = "❌ Something went wrong while handling this interaction."
)

type Kind int

const (
	KindCommand Kind = iota
	KindButton
	KindModal
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindButton:
		return "button"
	case KindModal:
		return "modal"
	}
	return "unknown"
}

// Invocation is what a handler sees of one interaction.
type Invocation struct {
	Interaction *discordgo.Interaction
	Reply       *Reply
	Kind        Kind
	// Name is the command name or the custom id prefix before the first ':'.
	Name string
	// Arg is the custom id remainder after the first ':'.
	Arg    string
	UserID string
}

type Handler func(ctx context.Context, inv *Invocation) error

type ActiveReader interface {
	Active() bool
}

type RouterStore interface {
	db.CommandStore
	db.CommandLogStore
}

type Router struct {
	api     Responder
	state   ActiveReader
	store   RouterStore
	logger  *zap.Logger
	timeout time.Duration

	commands map[string]Handler
	buttons  map[string]Handler
	modals   map[string]Handler
}

func NewRouter(api Responder, state ActiveReader, store RouterStore, logger *zap.Logger) *Router {
	return &Router{
		api:      api,
		state:    state,
		store:    store,
		logger:   logger,
		timeout:  30 * time.Second,
		commands: make(map[string]Handler),
		buttons:  make(map[string]Handler),
		modals:   make(map[string]Handler),
	}
}

func (r *Router) Command(name string, h Handler)  { r.commands[name] = h }
func (r *Router) Button(prefix string, h Handler) { r.buttons[prefix] = h }
func (r *Router) Modal(prefix string, h Handler)  { r.modals[prefix] = h }

// OnInteractionCreate is registered with the discordgo session.
func (r *Router) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i == nil || i.Interaction == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.Route(ctx, i.Interaction)
}

func splitCustomID(customID string) (prefix, arg string) {
	prefix, arg, _ = strings.Cut(customID, ":")
	return prefix, arg
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// Route dispatches one interaction. Inactive bots answer every interaction
// with StoppedMessage and run no handler.
func (r *Router) Route(ctx context.Context, i *discordgo.Interaction) {
	inv := &Invocation{
		Interaction: i,
		Reply:       NewReply(r.api, i),
		UserID:      interactionUserID(i),
	}

	var table map[string]Handler
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		inv.Kind = KindCommand
		inv.Name = i.ApplicationCommandData().Name
		table = r.commands
	case discordgo.InteractionMessageComponent:
		inv.Kind = KindButton
		inv.Name, inv.Arg = splitCustomID(i.MessageComponentData().CustomID)
		table = r.buttons
	case discordgo.InteractionModalSubmit:
		inv.Kind = KindModal
		inv.Name, inv.Arg = splitCustomID(i.ModalSubmitData().CustomID)
		table = r.modals
	default:
		return
	}

	log := r.logger.With(
		zap.Stringer("kind", inv.Kind),
		zap.String("name", inv.Name),
		zap.String("user_id", inv.UserID),
		zap.String("guild_id", i.GuildID))

	if !r.state.Active() {
		if err := inv.Reply.Send(StoppedMessage, true); err != nil {
			log.Warn("Failed to send stopped reply", zap.Error(err))
		}
		return
	}

	h, ok := table[inv.Name]
	if !ok {
		if err := inv.Reply.Send(NotImplementedMessage, true); err != nil {
			log.Warn("Failed to send not implemented reply", zap.Error(err))
		}
		return
	}

	err := h(ctx, inv)
	if err != nil {
		log.Error("Interaction handler failed", zap.Error(err))
		r.replyError(inv.Reply, err, log)
	}
	if inv.Kind == KindCommand {
		r.logCommand(ctx, inv, err)
	}
}

func (r *Router) replyError(reply *Reply, err error, log *zap.Logger) {
	msg := userMessage(err)
	var sendErr error
	switch {
	case !reply.Responded():
		sendErr = reply.Send(msg, true)
	default:
		sendErr = reply.Edit(msg)
	}
	if sendErr != nil && !errors.Is(sendErr, ErrNotResponded) {
		log.Warn("Failed to report handler error", zap.Error(sendErr))
	}
}

// userMessage exposes only errors that tell the user what to do next.
func userMessage(err error) string {
	for _, known := range []error{
		calendar.ErrNotConnected,
		calendar.ErrInvalidRequest,
		oauth.ErrServiceNotFound,
		errInvalidEventInput,
	} {
		if errors.Is(err, known) {
			return "❌ " + known.Error()
		}
	}
	return genericErrorMessage
}

func (r *Router) logCommand(ctx context.Context, inv *Invocation, handlerErr error) {
	entry := &db.CommandLog{
		UserDiscordID: inv.UserID,
		CommandName:   inv.Name,
		Success:       handlerErr == nil,
	}
	if inv.Interaction.GuildID != "" {
		guildID := inv.Interaction.GuildID
		entry.ServerID = &guildID
	}
	if handlerErr != nil {
		msg := handlerErr.Error()
		entry.ErrorMessage = &msg
	}
	if cmd, err := r.store.GetCommandByName(ctx, inv.Name); err == nil {
		entry.CommandID = &cmd.ID
	}
	if err := r.store.CreateCommandLog(ctx, entry); err != nil {
		r.logger.Warn("Failed to write command log", zap.String("command", inv.Name), zap.Error(err))
	}
}
