package translate

import "context"

// Request is one translation request. The service detects which of the two
// configured languages the text is in and translates to the other.
type Request struct {
	// SourceText is the text to translate
	SourceText string

	// LanguageA and LanguageB are the two language codes of the deployment
	// (e.g. "ja" and "en")
	LanguageA string
	LanguageB string
}

// Translator is the interface for translation service clients
type Translator interface {
	// Translate returns the translated text, and nothing else appended
	Translate(ctx context.Context, req Request) (string, error)
}
