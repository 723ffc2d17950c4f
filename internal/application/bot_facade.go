package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/domain/ports/adapter"
	"telegram-random-image/internal/infra/metrics"
)

// Callback data carried by inline buttons.
const (
	CallbackRandomImage  = "random_image"
	CallbackRandomPrefix = "random:"

	// Telegram rejects callback data longer than this.
	maxCallbackData = 64
)

// Outcome tells the adapter how a random request was resolved.
type Outcome int

const (
	OutcomeText Outcome = iota
	OutcomeEmpty
	OutcomePhoto
	OutcomeMissingFile
)

// Reply is what the adapter sends back to the chat. Photo is set only for
// OutcomePhoto; Text is then used as the caption.
type Reply struct {
	Text    string
	Photo   *adapter.Photo
	Buttons [][]adapter.InlineButton
	Outcome Outcome
}

// BotFacade composes the selection usecase, the photo loader and the
// translator into high-level bot commands. The Telegram adapter just
// forwards its replies to the chat.
type BotFacade struct {
	Selection SelectionUseCaseIface
	Photos    PhotoLoader
	I18n      Translator

	log *zerolog.Logger
}

func NewBotFacade(selection SelectionUseCaseIface, photos PhotoLoader, translator Translator, logger *zerolog.Logger) *BotFacade {
	return &BotFacade{Selection: selection, Photos: photos, I18n: translator, log: logger}
}

// HandleStart greets the user with the current catalog size.
func (b *BotFacade) HandleStart(ctx context.Context, firstName string) (*Reply, error) {
	n, err := b.Selection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	return &Reply{
		Text:    b.I18n.T("welcome_message", firstName, n),
		Buttons: b.singleButton("button_random", CallbackRandomImage),
	}, nil
}

func (b *BotFacade) HandleHelp() *Reply {
	return &Reply{Text: b.I18n.T("help_message")}
}

// HandleRandom picks a random image, optionally within category, and loads
// its file. A record whose file is gone from disk yields a text fallback.
func (b *BotFacade) HandleRandom(ctx context.Context, category string) (*Reply, error) {
	category = strings.TrimSpace(category)
	rec, err := b.Selection.Random(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("pick random image: %w", err)
	}
	if rec == nil {
		metrics.IncImageServed("empty")
		return &Reply{Text: b.I18n.T("random_empty"), Outcome: OutcomeEmpty}, nil
	}

	again := b.singleButton("button_random_again", randomData(category))

	photo, err := b.Photos.Load(rec.Filename)
	if errors.Is(err, fs.ErrNotExist) {
		metrics.IncImageServed("missing_file")
		b.log.Warn().Int64("image_id", rec.ID).Str("filename", rec.Filename).Msg("catalogued file is missing on disk")
		return &Reply{
			Text:    b.I18n.T("random_missing_file", rec.Filename, rec.Category),
			Buttons: again,
			Outcome: OutcomeMissingFile,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", rec.Filename, err)
	}

	metrics.IncImageServed("photo")
	return &Reply{
		Text:    b.I18n.T("random_caption", rec.Filename, rec.Category),
		Photo:   photo,
		Buttons: again,
		Outcome: OutcomePhoto,
	}, nil
}

// HandleCategories lists categories with a keyboard offering a random pick
// overall and per category.
func (b *BotFacade) HandleCategories(ctx context.Context) (*Reply, error) {
	cats, err := b.Selection.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) == 0 {
		return &Reply{Text: b.I18n.T("categories_empty")}, nil
	}

	lines := make([]string, 0, len(cats))
	rows := b.singleButton("button_random_any", CallbackRandomImage)
	var row []adapter.InlineButton
	for _, c := range cats {
		lines = append(lines, "• "+c)
		data := CallbackRandomPrefix + c
		if len(data) > maxCallbackData {
			continue
		}
		row = append(row, adapter.InlineButton{Text: b.I18n.T("button_category", c), Data: data})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return &Reply{
		Text:    b.I18n.T("categories_header", strings.Join(lines, "\n")),
		Buttons: rows,
	}, nil
}

func (b *BotFacade) HandleCount(ctx context.Context) (*Reply, error) {
	n, err := b.Selection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	return &Reply{Text: b.I18n.T("count_message", n)}, nil
}

func (b *BotFacade) HandleUnknown() *Reply {
	return &Reply{Text: b.I18n.T("unknown_command")}
}

// CategoryFromCallback extracts the category from random:<category> data.
func CategoryFromCallback(data string) string {
	return strings.TrimPrefix(data, CallbackRandomPrefix)
}

func (b *BotFacade) singleButton(key, data string) [][]adapter.InlineButton {
	return [][]adapter.InlineButton{{{Text: b.I18n.T(key), Data: data}}}
}

func randomData(category string) string {
	if category == "" || len(CallbackRandomPrefix+category) > maxCallbackData {
		return CallbackRandomImage
	}
	return CallbackRandomPrefix + category
}
