package i18n

import (
	"fmt"
	"testing"
)

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func resetLocale(t *testing.T) {
	t.Helper()
	old := po
	t.Cleanup(func() { po = old })
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "es_ES.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "es_ES" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "es_ES")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	resetLocale(t)
	po = nil

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}
	if got := N("%d sentence", "%d sentences", 1); got != "%d sentence" {
		t.Fatalf("N singular fallback = %q", got)
	}
	if got := N("%d sentence", "%d sentences", 2); got != "%d sentences" {
		t.Fatalf("N plural fallback = %q", got)
	}
	if got := N("%d sentence", "%d sentences", 0); got != "%d sentences" {
		t.Fatalf("N zero fallback = %q", got)
	}
}

func TestEmbeddedSpanishCatalog(t *testing.T) {
	resetLocale(t)
	Init("es")

	if got := T("No sentences to translate"); got != "No hay frases para traducir" {
		t.Errorf("T() = %q", got)
	}

	one := fmt.Sprintf(N("Translated %d sentence", "Translated %d sentences", 1), 1)
	if one != "1 frase traducida" {
		t.Errorf("N(1) = %q", one)
	}
	many := fmt.Sprintf(N("Translated %d sentence", "Translated %d sentences", 3), 3)
	if many != "3 frases traducidas" {
		t.Errorf("N(3) = %q", many)
	}
}

func TestUnknownLanguagePassesThrough(t *testing.T) {
	resetLocale(t)
	Init("xx")

	if got := T("No sentences to translate"); got != "No sentences to translate" {
		t.Errorf("T() = %q, want source string", got)
	}
}
