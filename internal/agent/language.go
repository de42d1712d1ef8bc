package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Malikxolo/Customer-Support-agent/internal/llm"
)

// DetectLanguage returns the ISO 639-1 code for the customer's message.
// Plain-ASCII messages skip the reasoning call and are treated as English,
// which keeps the common case at two model calls per turn.
func DetectLanguage(ctx context.Context, provider llm.Provider, model, message string) string {
	if looksEnglish(message) {
		return "en"
	}

	resp, err := provider.Generate(ctx, &llm.Request{
		Model:       model,
		Messages:    []llm.Message{{Role: "user", Content: fmt.Sprintf(languagePrompt, message)}},
		Temperature: 0,
		MaxTokens:   30,
	})
	if err != nil {
		return "en"
	}

	decoded, _ := llm.DecodeStructured(resp.Content, struct {
		Language string `json:"language"`
	}{Language: "en"})

	lang := strings.ToLower(strings.TrimSpace(decoded.Language))
	if len(lang) != 2 {
		return "en"
	}
	return lang
}

// localizedFailure picks the uniform failure reply for the customer's
// language, falling back to English.
func localizedFailure(lang string) string {
	replies := map[string]string{
		"en": failureReply,
		"hi": "क्षमा करें, हमारी ओर से कुछ गड़बड़ हो गई। कृपया थोड़ी देर में फिर से प्रयास करें।",
		"es": "Lo sentimos, algo salió mal de nuestro lado. Inténtalo de nuevo en un momento.",
		"fr": "Désolé, une erreur s'est produite de notre côté. Veuillez réessayer dans un instant.",
		"de": "Entschuldigung, bei uns ist etwas schiefgelaufen. Bitte versuchen Sie es gleich noch einmal.",
	}
	if reply, ok := replies[lang]; ok {
		return reply
	}
	return failureReply
}

func looksEnglish(message string) bool {
	for _, r := range message {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
