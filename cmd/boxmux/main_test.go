package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerWritesToBoxmuxLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boxmux.log")
	t.Setenv("BOXMUX_LOG_FILE", path)

	log, _ := newLogger("info")
	log.Info("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	if len(data) == 0 {
		t.Fatal("BOXMUX_LOG_FILE is empty, want the logged record")
	}
}

func TestNewLoggerFallsBackToStderrWhenUnset(t *testing.T) {
	t.Setenv("BOXMUX_LOG_FILE", "")

	log, level := newLogger("debug")
	if log == nil || level == nil {
		t.Fatal("newLogger returned nil")
	}
}

func TestTerminalSizeOverride(t *testing.T) {
	cases := []struct {
		name       string
		cols, rows string
		wantOK     bool
		wantCols   int
		wantRows   int
	}{
		{name: "unset", cols: "", rows: "", wantOK: false},
		{name: "cols only", cols: "120", rows: "", wantOK: false},
		{name: "rows only", cols: "", rows: "40", wantOK: false},
		{name: "both set", cols: "120", rows: "40", wantOK: true, wantCols: 120, wantRows: 40},
		{name: "non-numeric", cols: "abc", rows: "40", wantOK: false},
		{name: "zero", cols: "0", rows: "40", wantOK: false},
		{name: "negative", cols: "120", rows: "-1", wantOK: false},
		{name: "whitespace padded", cols: " 80 ", rows: " 24 ", wantOK: true, wantCols: 80, wantRows: 24},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BOXMUX_COLS", tc.cols)
			t.Setenv("BOXMUX_ROWS", tc.rows)

			cols, rows, ok := terminalSizeOverride()
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && (cols != tc.wantCols || rows != tc.wantRows) {
				t.Fatalf("got (%d,%d), want (%d,%d)", cols, rows, tc.wantCols, tc.wantRows)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "DEBUG",
		"Warn":    "WARN",
		"warning": "WARN",
		"ERROR":   "ERROR",
		"":        "INFO",
		"bogus":   "INFO",
	}
	for input, want := range cases {
		if got := parseLevel(input).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", input, got, want)
		}
	}
}
