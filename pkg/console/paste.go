package console

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zetzet7298/letta-code/pkg/utils"
)

// Default classification thresholds. Both are policy knobs surfaced in
// configuration; these exact values are the compatibility defaults.
const (
	DefaultPasteMaxChars = 500
	DefaultPasteMaxLines = 5
)

const pastePlaceholderFormat = "[Pasted text #%d +%d lines]"

// PasteRegistry stores full pasted text behind monotonic, process-unique
// ids. The engine only allocates; placeholder resolution happens in the
// consumer at submission time.
type PasteRegistry interface {
	Allocate(fullText string) (int, error)
}

// PasteClassifier decides whether inserted text goes into the buffer
// inline or is parked in the registry behind a placeholder token.
type PasteClassifier struct {
	registry PasteRegistry
	maxChars int
	maxLines int
}

func NewPasteClassifier(registry PasteRegistry, maxChars, maxLines int) *PasteClassifier {
	if maxChars <= 0 {
		maxChars = DefaultPasteMaxChars
	}
	if maxLines <= 0 {
		maxLines = DefaultPasteMaxLines
	}
	return &PasteClassifier{registry: registry, maxChars: maxChars, maxLines: maxLines}
}

// Classify returns the text to insert: either the input itself or a
// placeholder token when the input crosses the line or length
// thresholds. The paste flag is a hint only; size is the authoritative
// trigger, so oversized manual insertions are placeholdered too. If the
// registry cannot take the text, the raw text is returned so input is
// never lost.
func (c *PasteClassifier) Classify(text string, viaPaste bool) string {
	lineCount := strings.Count(text, "\n") + 1
	if lineCount <= c.maxLines && utf8.RuneCountInString(text) <= c.maxChars {
		return text
	}
	if c.registry == nil {
		return text
	}

	id, err := c.registry.Allocate(text)
	if err != nil {
		utils.GetLogger().LogError(fmt.Errorf("paste registry allocation failed: %w", err))
		return text
	}

	utils.GetLogger().LogConsoleEvent("paste_classified",
		fmt.Sprintf("id=%d lines=%d via_paste=%t", id, lineCount, viaPaste))
	return fmt.Sprintf(pastePlaceholderFormat, id, lineCount)
}
