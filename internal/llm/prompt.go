package llm

import (
	"math"
	"strings"
)

const textPlaceholder = "{text}"

const professionalTemplate = "Translate from casual to professional business English (maintain the exact same question or statement):\n\n" +
	"Casual: Should we grab lunch?\n" +
	"Professional: Would you be available for a lunch meeting?\n\n" +
	"Casual: hey the meeting is at 3pm\n" +
	"Professional: The meeting is scheduled for 3:00 PM.\n\n" +
	"Casual: {text}\n" +
	"Professional:"

const casualTemplate = "Translate from formal to casual English (maintain the exact same question or statement):\n\n" +
	"Formal: Should we proceed with the project?\n" +
	"Casual: Wanna move forward with the project?\n\n" +
	"Formal: I would like to request your assistance.\n" +
	"Casual: Hey, could you help me out?\n\n" +
	"Formal: {text}\n" +
	"Casual:"

const funnyTemplate = "Translate sentences from normal English to Bender-speak (maintain the exact same question or statement):\n\n" +
	"Normal: Should we order pizza tonight?\n" +
	"Bender-speak: Should us meatbags order some greasy pizza tonight?\n\n" +
	"Normal: I'm going to the store.\n" +
	"Bender-speak: I'm heading to the store, baby!\n\n" +
	"Normal: {text}\n" +
	"Bender-speak:"

// Request is one completion call, independent of the backend serving it.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
	Stop        []string
}

// BuildRequest renders the prompt for style and picks its stop set,
// temperature and token budget.
func BuildRequest(text string, style Style) Request {
	r := Request{MaxTokens: TokenBudget(text)}

	switch style.Kind {
	case KindProfessional:
		r.Prompt = fill(professionalTemplate, text)
		r.Stop = []string{"\n\n", "\nCasual:"}
		r.Temperature = 0.1
	case KindCasual:
		r.Prompt = fill(casualTemplate, text)
		r.Stop = []string{"\n\n", "\nFormal:"}
		r.Temperature = 0.3
	case KindFunny:
		r.Prompt = fill(funnyTemplate, text)
		r.Stop = []string{"\n\n", "\nNormal:"}
		r.Temperature = 0.3
	case KindCustom:
		if strings.Contains(style.Template, textPlaceholder) {
			r.Prompt = fill(style.Template, text)
		} else {
			r.Prompt = strings.TrimRight(style.Template, "\n") + "\n" + text
		}
		r.Stop = []string{"\n\n"}
		r.Temperature = 0.3
	default:
		r.Prompt = "Correct: " + text
		r.Stop = []string{"\n"}
		r.Temperature = 0.1
	}
	return r
}

func fill(template, text string) string {
	return strings.ReplaceAll(template, textPlaceholder, text)
}

const (
	minTokens = 64
	maxTokens = 512
)

// TokenBudget allows twice the estimated input tokens, clamped to
// [64, 512].
func TokenBudget(text string) int {
	words := len(strings.Fields(text))
	estimated := int(math.Round(float64(words) * 1.3))
	budget := estimated * 2
	if budget < minTokens {
		return minTokens
	}
	if budget > maxTokens {
		return maxTokens
	}
	return budget
}
