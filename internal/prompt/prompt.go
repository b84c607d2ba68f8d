// Package prompt builds the Gemini prompt from user profile, recent turns,
// and the incoming question.
package prompt

import (
	"fmt"
	"strings"

	"github.com/seekhealth/seekbot/internal/conversation"
	"github.com/seekhealth/seekbot/internal/users"
)

// answerBudgetChars is the soft length budget requested from the model. The
// dispatcher still chunks longer answers; this only keeps replies chat-sized.
const answerBudgetChars = 1200

const callToAction = "If you found this helpful, keep the conversation going - ask me anything about your meals, medications, or health goals."

// Composer renders prompts. siteURL is where off-topic questions are
// redirected.
type Composer struct {
	siteURL string
}

// NewComposer creates a prompt composer.
func NewComposer(siteURL string) *Composer {
	return &Composer{siteURL: siteURL}
}

// Compose builds the full prompt. A nil user selects the anonymous branch:
// generic framing with no profile or history block.
func (c *Composer) Compose(user *users.User, history []conversation.Message, question string) string {
	var b strings.Builder

	if user != nil {
		b.WriteString("You are Seek, a clinical nutritionist AI assistant. Use the following context for all responses.\n\n")
		b.WriteString("USER IDENTITY & HEALTH PROFILE:\n")
		fmt.Fprintf(&b, "- Name: %s\n", user.DisplayName())
		fmt.Fprintf(&b, "- Date of birth: %s\n", orUnknown(user.DateOfBirth))
		fmt.Fprintf(&b, "- Gender: %s\n", orUnknown(user.Gender))
		fmt.Fprintf(&b, "- Diet type: %s\n", orDefault(user.DietType, "Standard"))
		fmt.Fprintf(&b, "- Strict allergies: %s\n", orDefault(strings.Join(user.Allergies, ", "), "None"))
		fmt.Fprintf(&b, "- Health goals: %s\n", orDefault(strings.Join(user.Goals, ", "), "General wellness"))
		fmt.Fprintf(&b, "- Height: %s\n", formatMeasure(user.HeightCm, "cm"))
		fmt.Fprintf(&b, "- Weight: %s\n", formatMeasure(user.WeightKg, "kg"))
		b.WriteString("\n")

		if len(history) > 0 {
			b.WriteString("PREVIOUS MESSAGES:\n")
			b.WriteString(Transcript(history))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("You are Seek, a helpful AI health and nutrition assistant. The sender is not a registered user, so no profile or conversation history is available.\n\n")
	}

	b.WriteString(c.guardrail())
	b.WriteString("\n")
	fmt.Fprintf(&b, "User question: %s\n\n", question)
	b.WriteString(callToAction)

	return b.String()
}

// ComposeVision builds the prompt for analyzing an inbound food or product
// image. The media path has no identity or history context.
func (c *Composer) ComposeVision() string {
	var b strings.Builder
	b.WriteString("You are Seek, a clinical nutritionist AI assistant. Analyze the attached image.\n\n")
	b.WriteString("If it shows food, a meal, a drink, a drug, or a product label, describe what it is and give a short health and nutrition assessment: key ingredients, benefits, and anything to watch out for.\n")
	b.WriteString("If the image is unrelated to health, food, drugs, nutrition, or wellness, say so briefly and point the user to " + c.siteURL + ".\n\n")
	fmt.Fprintf(&b, "Keep the answer under %d characters.\n\n", answerBudgetChars)
	b.WriteString(callToAction)
	return b.String()
}

// Transcript renders turns one per line in chronological order.
func Transcript(history []conversation.Message) string {
	var b strings.Builder
	for _, msg := range history {
		role := "User"
		if msg.Role == conversation.RoleBot {
			role = "Seek"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, msg.Content)
	}
	return b.String()
}

func (c *Composer) guardrail() string {
	return fmt.Sprintf(`STRICT OPERATIONAL RULES:
1. Only answer questions about health, food, drugs, nutrition, or wellness.
2. If the question is about anything else, politely decline and point the user to %s instead.
3. Strictly avoid suggesting any ingredient listed in the user's allergies.
4. Be supportive, professional, and concise; keep the answer under %d characters.
`, c.siteURL, answerBudgetChars)
}

func orUnknown(value string) string {
	return orDefault(value, "Unknown")
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func formatMeasure(value float64, unit string) string {
	if value <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("%g %s", value, unit)
}
