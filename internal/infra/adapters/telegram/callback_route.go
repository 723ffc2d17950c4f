package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-random-image/internal/application"
	"telegram-random-image/internal/infra/logging"
	"telegram-random-image/internal/infra/metrics"
)

type cbHandler func(ctx context.Context, msg *tgbotapi.Message, data string) error

type prefixCB struct {
	Prefix string
	Fn     cbHandler
}

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		application.CallbackRandomImage: r.randomCBRoute,
	}
}

// Prefix-match callbacks
func (r *RealTelegramBotAdapter) cbPrefixRoutes() []prefixCB {
	return []prefixCB{
		{
			Prefix: application.CallbackRandomPrefix,
			Fn:     r.randomCategoryPrefixCBRoute,
		},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	// Stop the button spinner first; a failed ack does not block the reply.
	if _, err := r.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		logging.With(ctx, r.log).Warn().Err(err).Msg("failed to answer callback")
	}
	if q.Message == nil || q.Message.Chat == nil {
		return nil
	}

	if fn, ok := r.cbRoutes()[q.Data]; ok {
		metrics.IncTelegramCommand("cb:" + q.Data)
		if !r.allow(ctx, q.From, q.Data) {
			return r.SendMessage(ctx, q.Message.Chat.ID, r.translator.T("rate_limited"))
		}
		return fn(ctx, q.Message, q.Data)
	}
	for _, route := range r.cbPrefixRoutes() {
		if strings.HasPrefix(q.Data, route.Prefix) {
			metrics.IncTelegramCommand("cb:" + route.Prefix)
			if !r.allow(ctx, q.From, route.Prefix) {
				return r.SendMessage(ctx, q.Message.Chat.ID, r.translator.T("rate_limited"))
			}
			return route.Fn(ctx, q.Message, q.Data)
		}
	}
	logging.With(ctx, r.log).Debug().Str("data", q.Data).Msg("unknown callback data")
	return nil
}

func (r *RealTelegramBotAdapter) randomCBRoute(ctx context.Context, msg *tgbotapi.Message, _ string) error {
	return r.randomFromButton(ctx, msg, "")
}

func (r *RealTelegramBotAdapter) randomCategoryPrefixCBRoute(ctx context.Context, msg *tgbotapi.Message, data string) error {
	return r.randomFromButton(ctx, msg, application.CategoryFromCallback(data))
}

// randomFromButton answers a "another image" click: a photo goes out as a new
// message and the clicked one is removed; the empty and missing-file notices
// replace the clicked message in place.
func (r *RealTelegramBotAdapter) randomFromButton(ctx context.Context, msg *tgbotapi.Message, category string) error {
	reply, err := r.facade.HandleRandom(ctx, category)
	if err != nil {
		return err
	}

	if reply.Outcome == application.OutcomePhoto {
		if err := r.SendPhoto(ctx, msg.Chat.ID, reply.Photo, reply.Text, reply.Buttons); err != nil {
			return err
		}
		r.deleteQuietly(ctx, msg.Chat.ID, msg.MessageID)
		return nil
	}
	return r.replaceWithText(ctx, msg, reply.Text, reply.Buttons)
}
