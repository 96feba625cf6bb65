package llm

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name     string
		style    Style
		text     string
		wantTemp float32
		wantStop []string
		contains []string
		suffix   string
	}{
		{
			name:     "none",
			style:    None,
			text:     "helo wrld",
			wantTemp: 0.1,
			wantStop: []string{"\n"},
			suffix:   "Correct: helo wrld",
		},
		{
			name:     "professional",
			style:    Professional,
			text:     "gonna be late",
			wantTemp: 0.1,
			wantStop: []string{"\n\n", "\nCasual:"},
			contains: []string{
				"Casual: Should we grab lunch?\nProfessional: Would you be available for a lunch meeting?\n\n",
				"Casual: hey the meeting is at 3pm\nProfessional: The meeting is scheduled for 3:00 PM.\n\n",
			},
			suffix: "Casual: gonna be late\nProfessional:",
		},
		{
			name:     "casual",
			style:    Casual,
			text:     "Please advise.",
			wantTemp: 0.3,
			wantStop: []string{"\n\n", "\nFormal:"},
			contains: []string{
				"Formal: Should we proceed with the project?\nCasual: Wanna move forward with the project?\n\n",
				"Formal: I would like to request your assistance.\nCasual: Hey, could you help me out?\n\n",
			},
			suffix: "Formal: Please advise.\nCasual:",
		},
		{
			name:     "funny",
			style:    Funny,
			text:     "I'm going to the store.",
			wantTemp: 0.3,
			wantStop: []string{"\n\n", "\nNormal:"},
			contains: []string{
				"Normal: Should we order pizza tonight?\nBender-speak: Should us meatbags order some greasy pizza tonight?\n\n" +
					"Normal: I'm going to the store.\nBender-speak: I'm heading to the store, baby!\n\n" +
					"Normal: I'm going to the store.\nBender-speak:",
			},
			suffix: "Normal: I'm going to the store.\nBender-speak:",
		},
		{
			name:     "custom with placeholder",
			style:    Custom("Make this a haiku: {text}\nHaiku:"),
			text:     "the build is green",
			wantTemp: 0.3,
			wantStop: []string{"\n\n"},
			suffix:   "Make this a haiku: the build is green\nHaiku:",
		},
		{
			name:     "custom without placeholder",
			style:    Custom("Rewrite as a pirate.\n"),
			text:     "hello there",
			wantTemp: 0.3,
			wantStop: []string{"\n\n"},
			suffix:   "Rewrite as a pirate.\nhello there",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildRequest(tt.text, tt.style)
			if req.Temperature != tt.wantTemp {
				t.Errorf("temperature = %v, want %v", req.Temperature, tt.wantTemp)
			}
			if !reflect.DeepEqual(req.Stop, tt.wantStop) {
				t.Errorf("stop = %q, want %q", req.Stop, tt.wantStop)
			}
			for _, c := range tt.contains {
				if !strings.Contains(req.Prompt, c) {
					t.Errorf("prompt missing %q\nprompt: %q", c, req.Prompt)
				}
			}
			if !strings.HasSuffix(req.Prompt, tt.suffix) {
				t.Errorf("prompt = %q, want suffix %q", req.Prompt, tt.suffix)
			}
			if req.MaxTokens != TokenBudget(tt.text) {
				t.Errorf("max tokens = %d, want %d", req.MaxTokens, TokenBudget(tt.text))
			}
		})
	}
}

func TestTokenBudget(t *testing.T) {
	words := func(n int) string { return strings.TrimSpace(strings.Repeat("word ", n)) }

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 64},
		{"ten words", words(10), 64},
		{"fifty words", words(50), 130},
		{"hundred words", words(100), 260},
		{"rounding", words(3), 64},
		{"rounds half up", words(5), 64},
		{"large", words(300), 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TokenBudget(tt.text); got != tt.want {
				t.Errorf("TokenBudget() = %d, want %d", got, tt.want)
			}
		})
	}
}
