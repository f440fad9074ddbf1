package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// commandHandler is a function that handles a specific bot command.
type commandHandler func(ctx context.Context, msg *tgbotapi.Message)

// commandRegistry holds the mapping of command names to their handlers.
type commandRegistry struct {
	handlers map[string]commandHandler
	admin    map[string]commandHandler
}

// newCommandRegistry creates a new command registry for the bot.
func (b *Bot) newCommandRegistry() *commandRegistry {
	r := &commandRegistry{
		handlers: make(map[string]commandHandler),
		admin:    make(map[string]commandHandler),
	}

	b.registerUserCommands(r)
	b.registerAdminCommands(r)

	return r
}

func (b *Bot) registerUserCommands(r *commandRegistry) {
	r.handlers[CmdStart] = b.handleStart
	r.handlers[CmdHelp] = b.handleHelp
	r.handlers[CmdSearch] = b.handleSearchCommand
}

func (b *Bot) registerAdminCommands(r *commandRegistry) {
	r.admin[CmdAddChannel] = b.handleAddChannel
	r.admin[CmdChannels] = b.handleListChannels
	r.admin[CmdChannel] = b.handleChannelSetting
	r.admin[CmdPremium] = b.handlePremium
	r.admin[CmdVerify] = b.handleVerify
	r.admin[CmdStats] = b.handleStats
}

// route handles the command routing for a message. Admin commands from
// other users are answered with a refusal.
func (r *commandRegistry) route(ctx context.Context, b *Bot, msg *tgbotapi.Message) bool {
	cmd := msg.Command()

	if handler, ok := r.handlers[cmd]; ok {
		handler(ctx, msg)

		return true
	}

	if handler, ok := r.admin[cmd]; ok {
		if !b.cfg.IsAdmin(msg.From.ID) {
			b.logger.Warn().Int64(LogFieldUserID, msg.From.ID).Str(LogFieldUsername, msg.From.UserName).Str("command", cmd).Msg("Unauthorized admin command")
			b.reply(msg, msgNotAdmin)

			return true
		}

		handler(ctx, msg)

		return true
	}

	return false
}
