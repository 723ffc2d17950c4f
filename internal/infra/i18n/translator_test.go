//go:build !integration

package i18n

import (
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"gopkg.in/yaml.v3"
)

func TestTranslator(t *testing.T) {
	contentBytes := []byte("greeting: مرحبا\nwelcome_user: مرحبا %s")

	translator, err := newTranslatorFromBytes(contentBytes)
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		got := translator.T("greeting")
		want := "مرحبا"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		got := translator.T("nonexistent_key")
		want := "nonexistent_key"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		got := translator.T("welcome_user", "Ali")
		want := "مرحبا Ali"
		if got != want {
			t.Errorf("wanted '%s', got '%s'", want, got)
		}
	})
}

func TestNewTranslator_FallsBackToDefaultLang(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": &fstest.MapFile{Data: []byte("hello: Hello")},
	}
	tr, err := NewTranslator(fsys, "fr")
	if err != nil {
		t.Fatalf("expected fallback, got %v", err)
	}
	if tr.Lang() != DefaultLang || tr.T("hello") != "Hello" {
		t.Errorf("expected english fallback, got lang=%s hello=%s", tr.Lang(), tr.T("hello"))
	}

	if _, err := NewTranslator(fstest.MapFS{}, "en"); err == nil {
		t.Error("expected error when no locale file exists")
	}
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	keysOf := func(lang string) []string {
		data, err := LocalesFS.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			t.Fatalf("read %s: %v", lang, err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(data, &m); err != nil {
			t.Fatalf("parse %s: %v", lang, err)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}

	en, ar := keysOf("en"), keysOf("ar")
	if len(en) != len(ar) {
		t.Fatalf("locale key sets differ: en=%v ar=%v", en, ar)
	}
	for i := range en {
		if en[i] != ar[i] {
			t.Fatalf("locale key sets differ at %d: %s vs %s", i, en[i], ar[i])
		}
	}

	tr, err := NewTranslator(LocalesFS, "ar")
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.T("count_message", 7); got != "📊 عدد الصور في قاعدة البيانات: 7" {
		t.Errorf("unexpected arabic count message %q", got)
	}
}

func TestHelpNamesTheRandomButton(t *testing.T) {
	for _, lang := range []string{"en", "ar"} {
		tr, err := NewTranslator(LocalesFS, lang)
		if err != nil {
			t.Fatalf("%s: %v", lang, err)
		}
		label := tr.T("button_random")
		if !strings.Contains(tr.T("help_message"), `"`+label+`"`) {
			t.Errorf("%s: help text does not mention the button label %q", lang, label)
		}
	}
}
