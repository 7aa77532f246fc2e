package chunk

import (
	"strings"
	"testing"
)

func paragraph(ch byte, n int) string {
	return strings.Repeat(string(ch), n)
}

func TestSplitBudgetProperty(t *testing.T) {
	texts := []string{
		"short",
		strings.Join([]string{paragraph('a', 40), paragraph('b', 40), paragraph('c', 40)}, "\n\n"),
		strings.Join([]string{paragraph('a', 99), paragraph('b', 1), paragraph('c', 50), paragraph('d', 98)}, "\n\n"),
		"one\n\ntwo\n\nthree\n\nfour\n\nfive",
	}
	const maxChars = 100

	for _, text := range texts {
		for _, c := range Split(text, maxChars) {
			if len(c.Text) > maxChars && strings.Contains(c.Text, "\n\n") {
				t.Errorf("multi-paragraph chunk %d exceeds budget: %d > %d", c.Index, len(c.Text), maxChars)
			}
		}
	}
}

func TestSplitOversizedParagraphAlone(t *testing.T) {
	big := paragraph('x', 500)
	text := strings.Join([]string{"intro", big, "outro"}, "\n\n")

	chunks := Split(text, 100)
	found := false
	for _, c := range chunks {
		if c.Text == big {
			found = true
		}
	}
	if !found {
		t.Fatalf("oversized paragraph was not placed alone in its own chunk; got %d chunks", len(chunks))
	}
}

func TestSplitCoverageProperty(t *testing.T) {
	texts := []string{
		"a",
		"alpha\n\nbeta\n\ngamma",
		"ends with separator\n\n",
		"\n\nstarts with separator",
		strings.Join([]string{paragraph('a', 90), paragraph('b', 90), paragraph('c', 90)}, "\n\n"),
		"inner\n\n\n\nempty paragraph",
	}

	for _, text := range texts {
		chunks := Split(text, 100)
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			if c.Index != i {
				t.Errorf("chunk order broken: index %d at position %d", c.Index, i)
			}
			parts[i] = c.Text
		}
		if got := strings.Join(parts, "\n\n"); got != text {
			t.Errorf("coverage broken:\n got %q\nwant %q", got, text)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if got := Split("", 100); got != nil {
		t.Fatalf("Split(\"\") = %v, want nil", got)
	}
}

func TestSplitTwoChunksAtContextBudget(t *testing.T) {
	// 40,000 chars total against a 7,000-token (28,000-char) budget: two
	// paragraphs of ~20k each must land in exactly two chunks.
	text := paragraph('a', 19999) + "\n\n" + paragraph('b', 19999)
	if len(text) != 40000 {
		t.Fatalf("fixture length = %d, want 40000", len(text))
	}

	maxChars := MaxChunkChars(7000)
	chunks := Split(text, maxChars)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if total := len(chunks[0].Text) + len(chunks[1].Text) + 2; total != 40000 {
		t.Fatalf("reassembled length = %d, want 40000", total)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(strings.Repeat("x", 40000)); got != 10000 {
		t.Fatalf("EstimateTokens = %d, want 10000", got)
	}
	if got := MaxChunkChars(7000); got != 28000 {
		t.Fatalf("MaxChunkChars = %d, want 28000", got)
	}
}
