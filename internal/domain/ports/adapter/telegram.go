// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// Photo is an image payload ready for upload.
type Photo struct {
	Name  string
	Bytes []byte
}

type TelegramBotAdapter interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
	SendPhoto(ctx context.Context, chatID int64, photo *Photo, caption string, rows [][]InlineButton) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
