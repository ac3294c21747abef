package stages

import (
	"errors"
	"reflect"
	"testing"

	"doclex-backend/internal/languages"
)

func profileFor(t *testing.T, lang languages.Language) languages.Profile {
	t.Helper()
	reg, err := languages.NewRegistry(languages.Options{}, lang)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	p, ok := reg.Profile(lang.Code)
	if !ok {
		t.Fatalf("profile %s missing", lang.Code)
	}
	return p
}

func englishProfile(t *testing.T) languages.Profile {
	t.Helper()
	return profileFor(t, languages.Builtin()[0])
}

func TestTokenizeBasic(t *testing.T) {
	tokens, err := Tokenize("The quick brown fox", englishProfile(t), nil)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"the", "quick", "brown", "fox"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenizeKeepsInnerHyphens(t *testing.T) {
	tokens, err := Tokenize("utf-8 and co-op --dashes--", englishProfile(t), nil)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"utf-8", "and", "co-op", "dashes"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenizeFoldsDiacritics(t *testing.T) {
	p := profileFor(t, languages.Language{
		Code:           "es",
		Name:           "Spanish",
		FoldDiacritics: true,
	})
	tokens, err := Tokenize("Análisis según configuración", p, nil)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"analisis", "segun", "configuracion"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenizeWhitespaceVariant(t *testing.T) {
	p := profileFor(t, languages.Language{
		Code:      "en",
		Name:      "English",
		Tokenizer: languages.TokenizerWhitespace,
	})
	tokens, err := Tokenize(`"Don't stop," she said.`, p, nil)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"don't", "stop", "she", "said"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenizeMinTokenLength(t *testing.T) {
	tokens, err := Tokenize("a an the word", englishProfile(t), Params{"min_token_length": float64(3)})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []string{"the", "word"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
}

func TestTokenizePunctuationOnlyFails(t *testing.T) {
	_, err := Tokenize("!!! ... ???", englishProfile(t), nil)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestTokenizeInvalidEncoding(t *testing.T) {
	_, err := Tokenize("valid \xff\xfe invalid", englishProfile(t), nil)
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestTokenizationMetrics(t *testing.T) {
	metrics, err := TokenizationMetrics(Input{Tokens: []string{"a", "b", "c"}}, nil)
	if err != nil {
		t.Fatalf("TokenizationMetrics: %v", err)
	}
	if metrics["token_count"] != float64(3) {
		t.Fatalf("token_count = %v", metrics["token_count"])
	}
	if _, err := TokenizationMetrics(Input{}, nil); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestRegistryUnknownStage(t *testing.T) {
	if _, err := DefaultRegistry().Get("nonsense"); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
}
