package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("invalid_type", nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestSetLanguage_RegionalTags(t *testing.T) {
	t.Cleanup(func() { SetLanguage("en") })

	SetLanguage("ja-JP")
	if msg := T("required", nil); msg != "必須プロパティが不足しています" {
		t.Fatalf("ja-JP: got %q", msg)
	}

	SetLanguage("fr-FR")
	if msg := T("required", nil); msg != "required property missing" {
		t.Fatalf("fr-FR should fall back to en, got %q", msg)
	}
}

func TestMessage_BusinessRules(t *testing.T) {
	got := T("business_rule", map[string]string{"rule": "incremental_column_required"})
	if got != "incremental_column must be provided if incremental is true" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := T("business_rule", nil); got != "business rule violated" {
		t.Fatalf("unexpected fallback message: %q", got)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "X-" + code }

func TestSetTranslator_CustomAndReset(t *testing.T) {
	SetTranslator(upper{})
	if got := T("unknown_key", nil); got != "X-unknown_key" {
		t.Fatalf("custom translator not used: %q", got)
	}
	SetTranslator(nil)
	if got := T("unknown_key", nil); got != "unknown key" {
		t.Fatalf("reset should restore en: %q", got)
	}
}

func TestMessage_UnknownCodeEchoes(t *testing.T) {
	if got := T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("got %q", got)
	}
}
