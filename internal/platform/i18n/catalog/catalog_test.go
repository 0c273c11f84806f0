package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedHasExpectedLocales(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	if !bundle.HasLocale(BaseLocale) {
		t.Fatalf("expected base locale %s", BaseLocale)
	}
	if !bundle.HasLocale("id-ID") {
		t.Fatalf("expected locale id-ID")
	}

	if got := len(bundle.LocaleMessages("en-US")); got == 0 {
		t.Fatalf("expected en-US messages")
	}
	if got := len(bundle.NamespaceMessages("en-US", "core")); got == 0 {
		t.Fatalf("expected en-US core namespace messages")
	}
}

func TestLoadFromFSRejectsCoreKeyOutsideCoreNamespace(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/web.yaml"), `locale: "en-US"
namespace: "web"
messages:
  "core.bad": "nope"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/core.yaml"), `locale: "en-US"
namespace: "core"
messages:
  "core.good": "ok"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadFromFSRejectsDuplicateKeysAcrossNamespaces(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/core.yaml"), `locale: "en-US"
namespace: "core"
messages:
  "a.key": "a"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/web.yaml"), `locale: "en-US"
namespace: "web"
messages:
  "a.key": "b"
`)

	_, err := LoadFromFS(os.DirFS(tempDir))
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestNamespaceMessagesWithFallback(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	resolved, messages := bundle.NamespaceMessagesWithFallback("fr-FR", "errors")
	if resolved != "en-US" {
		t.Fatalf("resolved locale = %q, want en-US", resolved)
	}
	if len(messages) == 0 {
		t.Fatal("expected fallback errors namespace messages")
	}
}

func TestEmbeddedLocalesShareKeys(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	base := bundle.LocaleMessages(BaseLocale)
	for _, locale := range bundle.Locales() {
		messages := bundle.LocaleMessages(locale)
		for key := range base {
			if _, ok := messages[key]; !ok {
				t.Errorf("locale %s missing key %q", locale, key)
			}
		}
		for key := range messages {
			if _, ok := base[key]; !ok {
				t.Errorf("locale %s has key %q absent from %s", locale, key, BaseLocale)
			}
		}
	}
}

func TestResolveLocale(t *testing.T) {
	bundle, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("load embedded catalogs: %v", err)
	}
	tests := []struct {
		requested string
		want      string
	}{
		{requested: "id-ID", want: "id-ID"},
		{requested: "id", want: "id-ID"},
		{requested: " en-US ", want: "en-US"},
		{requested: "en-GB", want: "en-US"},
		{requested: "fr-FR", want: BaseLocale},
		{requested: "", want: BaseLocale},
		{requested: "not a tag", want: BaseLocale},
	}
	for _, tc := range tests {
		if got := bundle.ResolveLocale(tc.requested); got != tc.want {
			t.Fatalf("ResolveLocale(%q) = %q, want %q", tc.requested, got, tc.want)
		}
	}
}

func TestMessageFallsBackToBaseLocale(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/core.yaml"), `locale: "en-US"
namespace: "core"
messages:
  "core.hello": "hello"
  "core.bye": "bye"
`)
	mustWriteFile(t, filepath.Join(tempDir, "locales/id-ID/core.yaml"), `locale: "id-ID"
namespace: "core"
messages:
  "core.hello": "halo"
`)
	bundle, err := LoadFromFS(os.DirFS(tempDir))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if got, ok := bundle.Message("id-ID", "core.hello"); !ok || got != "halo" {
		t.Fatalf("Message(id-ID, core.hello) = %q, %v", got, ok)
	}
	if got, ok := bundle.Message("id-ID", "core.bye"); !ok || got != "bye" {
		t.Fatalf("Message(id-ID, core.bye) = %q, %v; want base fallback", got, ok)
	}
	if _, ok := bundle.Message("id-ID", "core.missing"); ok {
		t.Fatal("expected missing key to report false")
	}
}

func TestLoadFromFSRejectsLocaleMismatch(t *testing.T) {
	tempDir := t.TempDir()
	mustWriteFile(t, filepath.Join(tempDir, "locales/en-US/core.yaml"), `locale: "id-ID"
namespace: "core"
messages:
  "core.good": "ok"
`)
	if _, err := LoadFromFS(os.DirFS(tempDir)); err == nil {
		t.Fatal("expected locale mismatch error")
	}
}

func mustWriteFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
