package hotkey

import "testing"

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    uint16
		wantErr bool
	}{
		{"capslock", KeyCapsLock, false},
		{"CapsLock", KeyCapsLock, false},
		{"KEY_RIGHTCTRL", KeyRightCtrl, false},
		{"f1", 59, false},
		{"f10", 68, false},
		{"f12", 88, false},
		{"f13", 183, false},
		{"58", 58, false},
		{"", 0, true},
		{"hyper", 0, true},
		{"0", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKey(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeyName(t *testing.T) {
	if got := KeyName(KeyCapsLock); got != "capslock" {
		t.Errorf("KeyName(capslock) = %q", got)
	}
	if got := KeyName(KeyCompose); got != "compose" {
		t.Errorf("KeyName(compose) = %q", got)
	}
	if got := KeyName(999); got != "999" {
		t.Errorf("KeyName(999) = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "toggle", "Toggle"} {
		if m, err := ParseMode(s); err != nil || m != Toggle {
			t.Errorf("ParseMode(%q) = %v, %v", s, m, err)
		}
	}
	if m, err := ParseMode("hold"); err != nil || m != Hold {
		t.Errorf("ParseMode(hold) = %v, %v", m, err)
	}
	if _, err := ParseMode("sticky"); err == nil {
		t.Error("ParseMode(sticky) should fail")
	}
}
