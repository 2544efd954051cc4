package console

import (
	"errors"
	"strings"
	"testing"

	"github.com/zetzet7298/letta-code/pkg/pastestore"
)

func TestClassifyShortTextStaysInline(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	text := "short paste"
	if got := c.Classify(text, true); got != text {
		t.Errorf("Expected inline text, got %q", got)
	}
	if reg.Len() != 0 {
		t.Errorf("Expected no registry entries, got %d", reg.Len())
	}
}

func TestClassifyExactThresholdsStayInline(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	atCharLimit := strings.Repeat("a", DefaultPasteMaxChars)
	if got := c.Classify(atCharLimit, true); got != atCharLimit {
		t.Error("Text at the character limit should stay inline")
	}

	atLineLimit := "a\nb\nc\nd\ne" // five lines
	if got := c.Classify(atLineLimit, true); got != atLineLimit {
		t.Error("Text at the line limit should stay inline")
	}
}

func TestClassifyLongTextGetsPlaceholder(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	text := strings.Repeat("a", DefaultPasteMaxChars+1)
	got := c.Classify(text, true)
	if got != "[Pasted text #1 +1 lines]" {
		t.Errorf("Expected placeholder, got %q", got)
	}

	stored, ok := reg.Get(1)
	if !ok || stored != text {
		t.Error("Registry should hold the original text under id 1")
	}
}

func TestClassifyManyLinesGetsPlaceholder(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	text := "l1\nl2\nl3\nl4\nl5\nl6"
	got := c.Classify(text, true)
	if got != "[Pasted text #1 +6 lines]" {
		t.Errorf("Expected six-line placeholder, got %q", got)
	}
}

func TestClassifyCountsRunesNotBytes(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	// 300 runes but 600 bytes; must stay inline.
	text := strings.Repeat("é", 300)
	if got := c.Classify(text, true); got != text {
		t.Error("Multibyte text under the rune limit should stay inline")
	}
}

func TestClassifyManualInsertionToo(t *testing.T) {
	// The paste flag is a hint; size alone triggers classification.
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	text := strings.Repeat("x", 501)
	got := c.Classify(text, false)
	if got != "[Pasted text #1 +1 lines]" {
		t.Errorf("Expected oversized manual insertion placeholdered, got %q", got)
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 10, 2)

	if got := c.Classify("tiny", true); got != "tiny" {
		t.Errorf("Expected inline, got %q", got)
	}
	if got := c.Classify("one\ntwo", true); got != "one\ntwo" {
		t.Errorf("Expected two lines inline, got %q", got)
	}
	if got := c.Classify("abcdefghijk", true); got != "[Pasted text #1 +1 lines]" {
		t.Errorf("Expected placeholder past the char limit, got %q", got)
	}
	if got := c.Classify("a\nb\nc", true); got != "[Pasted text #2 +3 lines]" {
		t.Errorf("Expected placeholder past the line limit, got %q", got)
	}
}

func TestClassifySequentialIDs(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 5, 0)

	first := c.Classify("aaaaaaaa", true)
	second := c.Classify("bbbbbbbb", true)
	if first != "[Pasted text #1 +1 lines]" || second != "[Pasted text #2 +1 lines]" {
		t.Errorf("Expected sequential ids, got %q and %q", first, second)
	}
}

type failingRegistry struct{}

func (failingRegistry) Allocate(string) (int, error) {
	return 0, errors.New("registry unavailable")
}

func TestClassifyAllocationFailureKeepsText(t *testing.T) {
	c := NewPasteClassifier(failingRegistry{}, 5, 0)

	text := "would be placeholdered"
	if got := c.Classify(text, true); got != text {
		t.Errorf("Expected raw text on allocation failure, got %q", got)
	}
}

func TestClassifyNilRegistryKeepsText(t *testing.T) {
	c := NewPasteClassifier(nil, 5, 0)

	text := "no registry wired"
	if got := c.Classify(text, true); got != text {
		t.Errorf("Expected raw text without a registry, got %q", got)
	}
}

// The placeholder the classifier writes must be the token the registry
// expands at submission time.
func TestClassifyPlaceholderRoundTrip(t *testing.T) {
	reg := pastestore.NewRegistry()
	c := NewPasteClassifier(reg, 0, 0)

	original := strings.Repeat("package main\n", 10)
	placeholder := c.Classify(original, true)
	if placeholder == original {
		t.Fatal("Expected a placeholder for a ten-line paste")
	}

	line := "before " + placeholder + " after"
	resolved := reg.Resolve(line)
	if resolved != "before "+original+" after" {
		t.Errorf("Expected placeholder expanded back to the original, got %q", resolved)
	}
}
