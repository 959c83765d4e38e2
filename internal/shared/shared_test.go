package shared

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeText(t *testing.T) {
	tc := []struct {
		name string
		text string
		want string
	}{
		{
			name: "already clean",
			text: "Bohemian Rhapsody",
			want: "Bohemian Rhapsody",
		},
		{
			name: "extra whitespace",
			text: "  Hello   World  ",
			want: "Hello World",
		},
		{
			name: "multi line OCR output",
			text: "QUEEN\nBohemian\tRhapsody\r\n",
			want: "QUEEN Bohemian Rhapsody",
		},
		{
			name: "only whitespace",
			text: " \n\t ",
			want: "",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.text)
			if got != tt.want {
				t.Errorf("NormalizeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("ApplyLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		if err := ApplyLogLevel(logger, "error"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.ErrorLevel {
			t.Errorf("expected error level, got %v", logger.GetLevel())
		}

		logger.Info("hidden")
		if strings.Contains(buf.String(), "hidden") {
			t.Error("info message should be filtered at error level")
		}

		if err := ApplyLogLevel(logger, "loud"); err == nil {
			t.Error("expected error for unknown level")
		}
		if err := ApplyLogLevel(logger, ""); err != nil {
			t.Errorf("empty level should be a no-op, got %v", err)
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "upl.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("failed to create file logger: %v", err)
		}
		logger.Info("written")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written") {
			t.Errorf("expected log file to contain message, got %q", data)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestBrowserCommand(t *testing.T) {
	const url = "https://accounts.spotify.com/authorize?client_id=x"

	tc := []struct {
		name    string
		goos    string
		env     string
		want    string
		wantErr bool
	}{
		{name: "macOS", goos: "darwin", want: "open " + url},
		{name: "linux", goos: "linux", want: "xdg-open " + url},
		{name: "windows", goos: "windows", want: "rundll32 url.dll,FileProtocolHandler " + url},
		{name: "BROWSER overrides platform", goos: "linux", env: "firefox --new-tab", want: "firefox --new-tab " + url},
		{name: "blank BROWSER is ignored", goos: "darwin", env: "  ", want: "open " + url},
		{name: "unknown platform", goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := browserCommand(tt.goos, tt.env, url)
			if tt.wantErr {
				if !errors.Is(err, ErrServiceUnavailable) {
					t.Errorf("expected ErrServiceUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := strings.Join(argv, " "); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("Launcher Table Is Not Mutated", func(t *testing.T) {
		browserCommand("windows", "", "a")
		browserCommand("windows", "", "b")
		if got := launchers["windows"]; len(got) != 2 {
			t.Errorf("expected launcher table untouched, got %v", got)
		}
	})
}
