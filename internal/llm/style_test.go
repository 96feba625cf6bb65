package llm

import "testing"

func TestStyle_Next(t *testing.T) {
	s := None
	want := []Style{Professional, Casual, Funny, None}
	for i, w := range want {
		s = s.Next()
		if s != w {
			t.Fatalf("step %d: Next() = %v, want %v", i, s, w)
		}
	}
	if got := Custom("x {text}").Next(); got != None {
		t.Errorf("Custom.Next() = %v, want None", got)
	}
}

func TestStyle_Metadata(t *testing.T) {
	tests := []struct {
		style  Style
		name   string
		desc   string
		number int
	}{
		{None, "None", "Basic error correction only", 1},
		{Professional, "Professional", "Formal business language", 2},
		{Casual, "Casual", "Conversational and friendly", 3},
		{Funny, "Funny", "Humorous, Bender-style", 4},
		{Custom("t"), "Custom", "Your own prompt template", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.style.DisplayName() != tt.name {
				t.Errorf("DisplayName() = %s, want %s", tt.style.DisplayName(), tt.name)
			}
			if tt.style.Description() != tt.desc {
				t.Errorf("Description() = %s, want %s", tt.style.Description(), tt.desc)
			}
			if tt.style.Number() != tt.number {
				t.Errorf("Number() = %d, want %d", tt.style.Number(), tt.number)
			}
		})
	}
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     Style
		wantErr  bool
	}{
		{name: "", want: None},
		{name: "none", want: None},
		{name: "Professional", want: Professional},
		{name: " casual ", want: Casual},
		{name: "funny", want: Funny},
		{name: "custom", template: "Fix: {text}", want: Custom("Fix: {text}")},
		{name: "custom", template: "  ", wantErr: true},
		{name: "pirate", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStyle(tt.name, tt.template)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStyle() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseStyle() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStyles(t *testing.T) {
	styles := Styles()
	if len(styles) != 4 {
		t.Fatalf("Styles() returned %d styles", len(styles))
	}
	for i, s := range styles {
		if s.Next() != styles[(i+1)%len(styles)] {
			t.Errorf("%v.Next() breaks cycle order", s)
		}
	}
}
