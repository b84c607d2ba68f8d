package transport

import (
	"strings"
	"testing"
)

func TestSplitMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		text       string
		limit      int
		wantChunks int
	}{
		{name: "empty", text: "", limit: 10, wantChunks: 0},
		{name: "fits in one", text: "hello", limit: 10, wantChunks: 1},
		{name: "exact limit", text: strings.Repeat("a", 10), limit: 10, wantChunks: 1},
		{name: "one over", text: strings.Repeat("a", 11), limit: 10, wantChunks: 2},
		{name: "many chunks", text: strings.Repeat("x", 35), limit: 10, wantChunks: 4},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			chunks := SplitMessage(tt.text, tt.limit)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("chunks=%d want=%d", len(chunks), tt.wantChunks)
			}
			// Concatenating the chunks in order reconstructs the input.
			if strings.Join(chunks, "") != tt.text {
				t.Fatalf("reconstruction mismatch")
			}
			for i, chunk := range chunks {
				n := len([]rune(chunk))
				if n > tt.limit {
					t.Fatalf("chunk %d length %d exceeds limit %d", i, n, tt.limit)
				}
				// Only the last chunk may be shorter than the limit.
				if i < len(chunks)-1 && n != tt.limit {
					t.Fatalf("non-final chunk %d has length %d", i, n)
				}
			}
		})
	}
}

func TestSplitMessageDoesNotBreakRunes(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("é", 7)
	chunks := SplitMessage(text, 3)
	if strings.Join(chunks, "") != text {
		t.Fatalf("reconstruction mismatch")
	}
	for _, chunk := range chunks {
		if !strings.ContainsRune(chunk, 'é') {
			t.Fatalf("chunk %q broke a rune", chunk)
		}
	}
}

func TestWhatsAppAddress(t *testing.T) {
	t.Parallel()

	if got := WhatsAppAddress("+15550100"); got != "whatsapp:+15550100" {
		t.Fatalf("got %q", got)
	}
	if got := WhatsAppAddress("whatsapp:+15550100"); got != "whatsapp:+15550100" {
		t.Fatalf("double prefix: %q", got)
	}
	if got := StripWhatsAppPrefix("whatsapp:+15550100"); got != "+15550100" {
		t.Fatalf("strip: %q", got)
	}
}
