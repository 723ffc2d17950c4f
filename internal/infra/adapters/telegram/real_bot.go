package telegram

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-random-image/internal/application"
	"telegram-random-image/internal/config"
	"telegram-random-image/internal/domain/ports/adapter"
	"telegram-random-image/internal/infra/logging"
	"telegram-random-image/internal/infra/metrics"
	red "telegram-random-image/internal/infra/redis"
)

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// handlerTimeout bounds a single update; handlers keep running through
// shutdown so in-flight replies are not cut off.
const handlerTimeout = 30 * time.Second

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot         botAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	translator  application.Translator
	rateLimiter RateLimiter
	log         *zerolog.Logger

	updateWorkers int
	running       atomic.Bool
}

// NewRealTelegramBotAdapter authenticates against the Bot API. rateLimiter may be nil.
func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, translator application.Translator, rateLimiter RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")

	return newAdapter(bot, cfg, facade, translator, rateLimiter, logger), nil
}

func newAdapter(bot botAPI, cfg *config.BotConfig, facade *application.BotFacade, translator application.Translator, rateLimiter RateLimiter, logger *zerolog.Logger) *RealTelegramBotAdapter {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		translator:    translator,
		rateLimiter:   rateLimiter,
		log:           logger,
		updateWorkers: workers,
	}
}

// Running reports whether the polling loop is active.
func (r *RealTelegramBotAdapter) Running() bool {
	return r.running.Load()
}

// StartPolling long-polls for updates until ctx is cancelled, then stops
// receiving and waits for in-flight handlers.
func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	r.running.Store(true)
	defer r.running.Store(false)

	handlerCtx := context.WithoutCancel(ctx)
	jobs := make(chan tgbotapi.Update)
	var wg sync.WaitGroup
	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for up := range jobs {
				r.dispatch(handlerCtx, up)
			}
		}()
	}
	r.log.Info().Int("workers", r.updateWorkers).Msg("telegram polling started")

	defer func() {
		close(jobs)
		wg.Wait()
		r.log.Info().Msg("telegram polling stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case jobs <- up:
			case <-ctx.Done():
			}
		}
	}
}

// RegisterCommands publishes the command menu. Failures are logged only.
func (r *RealTelegramBotAdapter) RegisterCommands(ctx context.Context) {
	cmds := []tgbotapi.BotCommand{
		{Command: "start", Description: r.translator.T("cmd_start_desc")},
		{Command: "help", Description: r.translator.T("cmd_help_desc")},
		{Command: "random", Description: r.translator.T("cmd_random_desc")},
		{Command: "categories", Description: r.translator.T("cmd_categories_desc")},
		{Command: "count", Description: r.translator.T("cmd_count_desc")},
	}
	if _, err := r.bot.Request(tgbotapi.NewSetMyCommands(cmds...)); err != nil {
		r.log.Warn().Err(err).Msg("failed to register bot commands")
	}
}

// dispatch runs one update inside the error guard: returned errors and
// panics are logged and the chat, when known, gets a generic notice.
func (r *RealTelegramBotAdapter) dispatch(ctx context.Context, up tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	ctx = logging.WithTraceID(ctx, uuid.NewString())
	chatID, userID := updateIDs(up)
	if userID != 0 {
		ctx = logging.WithTgID(ctx, userID)
	}
	log := logging.With(ctx, r.log)

	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncHandlerError("panic")
			log.Error().Interface("panic", rec).Str("stack", string(debug.Stack())).Int("update_id", up.UpdateID).Msg("update handler panicked")
			r.notifyFailure(ctx, chatID)
		}
	}()

	if err := r.handleUpdate(ctx, up); err != nil {
		metrics.IncHandlerError("error")
		log.Error().Err(err).Int("update_id", up.UpdateID).Msg("update handler failed")
		r.notifyFailure(ctx, chatID)
	}
}

func (r *RealTelegramBotAdapter) notifyFailure(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	if err := r.SendMessage(ctx, chatID, r.translator.T("error_generic")); err != nil {
		r.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send error notice")
	}
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	// ----- Inline button callbacks -----
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	// ----- Commands; plain text is ignored -----
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}
	command := msg.Command()
	metrics.IncTelegramCommand("/" + command)

	if !r.allow(ctx, msg.From, command) {
		return r.SendMessage(ctx, msg.Chat.ID, r.translator.T("rate_limited"))
	}

	handler, ok := r.commandRoutes()[command]
	if !ok {
		return r.sendReply(ctx, msg.Chat.ID, r.facade.HandleUnknown())
	}
	return handler(ctx, msg)
}

// allow applies the per-user limit. Limiter errors let the request through.
func (r *RealTelegramBotAdapter) allow(ctx context.Context, from *tgbotapi.User, command string) bool {
	if r.rateLimiter == nil || r.cfg.RateLimit <= 0 || from == nil {
		return true
	}
	allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(from.ID, command), r.cfg.RateLimit, time.Minute)
	if err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !allowed {
		metrics.IncRateLimitTriggered()
	}
	return allowed
}

func (r *RealTelegramBotAdapter) sendReply(ctx context.Context, chatID int64, reply *application.Reply) error {
	switch {
	case reply.Photo != nil:
		return r.SendPhoto(ctx, chatID, reply.Photo, reply.Text, reply.Buttons)
	case len(reply.Buttons) > 0:
		return r.SendButtons(ctx, chatID, reply.Text, reply.Buttons)
	default:
		return r.SendMessage(ctx, chatID, reply.Text)
	}
}

func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := keyboard(rows); ok {
		msg.ReplyMarkup = markup
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) SendPhoto(ctx context.Context, chatID int64, photo *adapter.Photo, caption string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: photo.Name, Bytes: photo.Bytes})
	msg.Caption = caption
	if markup, ok := keyboard(rows); ok {
		msg.ReplyMarkup = markup
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *RealTelegramBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// replaceWithText swaps the content of msg for text. Photo messages carry a
// caption instead of text, so they are replaced by a fresh message.
func (r *RealTelegramBotAdapter) replaceWithText(ctx context.Context, msg *tgbotapi.Message, text string, rows [][]adapter.InlineButton) error {
	chatID := msg.Chat.ID
	if len(msg.Photo) > 0 {
		if err := r.SendButtons(ctx, chatID, text, rows); err != nil {
			return err
		}
		r.deleteQuietly(ctx, chatID, msg.MessageID)
		return nil
	}

	var edit tgbotapi.EditMessageTextConfig
	if markup, ok := keyboard(rows); ok {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, msg.MessageID, text, markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, msg.MessageID, text)
	}
	if _, err := r.bot.Send(edit); err != nil && !isNotModified(err) {
		return err
	}
	return nil
}

// deleteQuietly removes a superseded message. Telegram refuses deletes of
// messages older than 48h; the new reply is already out, so that is logged only.
func (r *RealTelegramBotAdapter) deleteQuietly(ctx context.Context, chatID int64, messageID int) {
	if err := r.DeleteMessage(ctx, chatID, messageID); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Int("message_id", messageID).Msg("failed to delete previous message")
	}
}

func keyboard(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, r)
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}

func updateIDs(up tgbotapi.Update) (chatID, userID int64) {
	switch {
	case up.CallbackQuery != nil:
		if up.CallbackQuery.From != nil {
			userID = up.CallbackQuery.From.ID
		}
		if m := up.CallbackQuery.Message; m != nil && m.Chat != nil {
			chatID = m.Chat.ID
		}
	case up.Message != nil:
		if up.Message.From != nil {
			userID = up.Message.From.ID
		}
		if up.Message.Chat != nil {
			chatID = up.Message.Chat.ID
		}
	}
	return chatID, userID
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
