package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":      r.handleStartCommand,
		"help":       r.handleHelpCommand,
		"random":     r.handleRandomCommand,
		"categories": r.handleCategoriesCommand,
		"count":      r.handleCountCommand,
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	name := ""
	if message.From != nil {
		name = message.From.FirstName
	}
	reply, err := r.facade.HandleStart(ctx, name)
	if err != nil {
		return err
	}
	return r.sendReply(ctx, message.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendReply(ctx, message.Chat.ID, r.facade.HandleHelp())
}

// handleRandomCommand serves /random and /random <category>.
func (r *RealTelegramBotAdapter) handleRandomCommand(ctx context.Context, message *tgbotapi.Message) error {
	reply, err := r.facade.HandleRandom(ctx, message.CommandArguments())
	if err != nil {
		return err
	}
	return r.sendReply(ctx, message.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleCategoriesCommand(ctx context.Context, message *tgbotapi.Message) error {
	reply, err := r.facade.HandleCategories(ctx)
	if err != nil {
		return err
	}
	return r.sendReply(ctx, message.Chat.ID, reply)
}

func (r *RealTelegramBotAdapter) handleCountCommand(ctx context.Context, message *tgbotapi.Message) error {
	reply, err := r.facade.HandleCount(ctx)
	if err != nil {
		return err
	}
	return r.sendReply(ctx, message.Chat.ID, reply)
}
