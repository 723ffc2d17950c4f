//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"telegram-random-image/internal/domain"
	"telegram-random-image/internal/domain/model"
)

func TestNewImageRecord(t *testing.T) {
	t.Run("should apply default category", func(t *testing.T) {
		rec, err := model.NewImageRecord("a.jpg", "")
		if err != nil {
			t.Fatalf("NewImageRecord() error = %v", err)
		}
		if rec.Category != model.DefaultCategory {
			t.Errorf("expected category %q, got %q", model.DefaultCategory, rec.Category)
		}
		if rec.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
		if !rec.IsZero() {
			t.Error("a record without an ID should be zero")
		}
	})

	t.Run("should trim category but keep filename as on disk", func(t *testing.T) {
		rec, err := model.NewImageRecord(" b.png ", "  nature ")
		if err != nil {
			t.Fatalf("NewImageRecord() error = %v", err)
		}
		if rec.Filename != " b.png " || rec.Category != "nature" {
			t.Errorf("unexpected record %+v", rec)
		}
	})

	t.Run("should reject empty filename", func(t *testing.T) {
		_, err := model.NewImageRecord("   ", "nature")
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
