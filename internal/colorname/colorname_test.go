package colorname

import "testing"

func TestForegroundKnownName(t *testing.T) {
	if got := Foreground("red"); got != "31" {
		t.Fatalf("Foreground(red) = %q, want 31", got)
	}
}

func TestBackgroundBrightName(t *testing.T) {
	if got := Background("bright_blue"); got != "104" {
		t.Fatalf("Background(bright_blue) = %q, want 104", got)
	}
}

func TestForegroundHexFallback(t *testing.T) {
	got := Foreground("#ff0080")
	want := "38;2;255;0;128"
	if got != want {
		t.Fatalf("Foreground(#ff0080) = %q, want %q", got, want)
	}
}

func TestForegroundUnknownName(t *testing.T) {
	if got := Foreground("not-a-color"); got != "" {
		t.Fatalf("Foreground(not-a-color) = %q, want empty", got)
	}
}
