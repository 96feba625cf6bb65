package llm

import (
	"fmt"
	"strings"
)

type StyleKind int

const (
	KindNone StyleKind = iota
	KindProfessional
	KindCasual
	KindFunny
	KindCustom
)

// Style selects how the correction stage rewrites text. Custom styles carry
// their own prompt template; the others use fixed two-shot prompts.
type Style struct {
	Kind     StyleKind
	Template string
}

var (
	None         = Style{Kind: KindNone}
	Professional = Style{Kind: KindProfessional}
	Casual       = Style{Kind: KindCasual}
	Funny        = Style{Kind: KindFunny}
)

func Custom(template string) Style {
	return Style{Kind: KindCustom, Template: template}
}

// Next is the style the cycle shortcut moves to. Custom is never reached by
// cycling and leaves back to None.
func (s Style) Next() Style {
	switch s.Kind {
	case KindNone:
		return Professional
	case KindProfessional:
		return Casual
	case KindCasual:
		return Funny
	default:
		return None
	}
}

func (s Style) String() string {
	switch s.Kind {
	case KindProfessional:
		return "professional"
	case KindCasual:
		return "casual"
	case KindFunny:
		return "funny"
	case KindCustom:
		return "custom"
	default:
		return "none"
	}
}

func (s Style) DisplayName() string {
	switch s.Kind {
	case KindProfessional:
		return "Professional"
	case KindCasual:
		return "Casual"
	case KindFunny:
		return "Funny"
	case KindCustom:
		return "Custom"
	default:
		return "None"
	}
}

func (s Style) Description() string {
	switch s.Kind {
	case KindProfessional:
		return "Formal business language"
	case KindCasual:
		return "Conversational and friendly"
	case KindFunny:
		return "Humorous, Bender-style"
	case KindCustom:
		return "Your own prompt template"
	default:
		return "Basic error correction only"
	}
}

// Number is the badge shown next to the style name.
func (s Style) Number() int {
	return int(s.Kind) + 1
}

// ParseStyle maps a config name to a style. template is only used for
// "custom".
func ParseStyle(name, template string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "professional":
		return Professional, nil
	case "casual":
		return Casual, nil
	case "funny":
		return Funny, nil
	case "custom":
		if strings.TrimSpace(template) == "" {
			return None, fmt.Errorf("custom style needs a prompt template")
		}
		return Custom(template), nil
	default:
		return None, fmt.Errorf("unknown writing style: %s", name)
	}
}

// Styles lists the built-in styles in cycle order.
func Styles() []Style {
	return []Style{None, Professional, Casual, Funny}
}
