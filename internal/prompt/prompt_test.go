package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/seekhealth/seekbot/internal/conversation"
	"github.com/seekhealth/seekbot/internal/users"
)

const testSiteURL = "https://seekhealth.app"

func TestComposeWithIdentityEmbedsProfileAndQuestion(t *testing.T) {
	t.Parallel()

	user := &users.User{
		FirstName:   "Ada",
		LastName:    "Obi",
		DateOfBirth: "1990-04-12",
		Gender:      "female",
		DietType:    "Vegetarian",
		Allergies:   []string{"peanuts", "shellfish"},
		Goals:       []string{"weight loss", "better sleep"},
		HeightCm:    172,
		WeightKg:    64,
	}
	question := "is ibuprofen safe on an empty stomach"

	got := NewComposer(testSiteURL).Compose(user, nil, question)

	for _, want := range []string{
		"Ada Obi", "1990-04-12", "female", "Vegetarian",
		"peanuts, shellfish", "weight loss, better sleep",
		"172 cm", "64 kg", question, testSiteURL, callToAction,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q\n%s", want, got)
		}
	}
}

func TestComposeWithIdentityRendersHistoryChronologically(t *testing.T) {
	t.Parallel()

	base := time.Now()
	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "hi", CreatedAt: base},
		{Role: conversation.RoleBot, Content: "hello Ada", CreatedAt: base.Add(time.Second)},
	}

	got := NewComposer(testSiteURL).Compose(&users.User{FirstName: "Ada"}, history, "next question")

	userLine := strings.Index(got, "User: hi")
	botLine := strings.Index(got, "Seek: hello Ada")
	if userLine < 0 || botLine < 0 {
		t.Fatalf("missing transcript lines\n%s", got)
	}
	if userLine > botLine {
		t.Fatalf("transcript out of order\n%s", got)
	}
}

func TestComposeAnonymousOmitsProfileAndHistory(t *testing.T) {
	t.Parallel()

	history := []conversation.Message{
		{Role: conversation.RoleUser, Content: "should not leak"},
	}
	got := NewComposer(testSiteURL).Compose(nil, history, "what is ibuprofen")

	if strings.Contains(got, "HEALTH PROFILE") {
		t.Fatalf("anonymous prompt has profile block\n%s", got)
	}
	if strings.Contains(got, "should not leak") {
		t.Fatalf("anonymous prompt has history\n%s", got)
	}
	if !strings.Contains(got, "what is ibuprofen") {
		t.Fatalf("question missing\n%s", got)
	}
	// Both branches carry the same guardrail and footer.
	if !strings.Contains(got, testSiteURL) || !strings.Contains(got, callToAction) {
		t.Fatalf("guardrail or footer missing\n%s", got)
	}
}

func TestComposeProfileFallbacks(t *testing.T) {
	t.Parallel()

	got := NewComposer(testSiteURL).Compose(&users.User{}, nil, "q")

	for _, want := range []string{
		"- Name: User", "- Diet type: Standard",
		"- Strict allergies: None", "- Health goals: General wellness",
		"- Height: Unknown", "- Weight: Unknown",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing fallback %q\n%s", want, got)
		}
	}
}
