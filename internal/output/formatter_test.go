package output

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	// Disable color for tests
	color.NoColor = true
}

// captureStdout captures stdout during function execution
func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Also set color output to the same writer
	color.Output = w

	f()

	w.Close()
	os.Stdout = old
	color.Output = os.Stdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestJSON(t *testing.T) {
	data := map[string]interface{}{
		"domain":   "example.com",
		"web_root": "/var/www/example.com",
	}

	out := captureStdout(func() {
		_ = JSON(data)
	})

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("JSON output is invalid: %v", err)
	}
	if result["domain"] != "example.com" {
		t.Errorf("expected domain example.com, got %v", result["domain"])
	}
	if result["web_root"] != "/var/www/example.com" {
		t.Errorf("expected web_root /var/www/example.com, got %v", result["web_root"])
	}
}

func TestTable(t *testing.T) {
	t.Run("aligned columns", func(t *testing.T) {
		out := captureStdout(func() {
			Table([]string{"CHECK", "STATUS"}, [][]string{
				{"firewall", "ufw active"},
				{"port 80", "open"},
			})
		})

		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines (header, separator, 2 rows), got %d", len(lines))
		}
		if !strings.HasPrefix(lines[0], "CHECK") {
			t.Errorf("unexpected header line: %q", lines[0])
		}
		if !strings.Contains(lines[2], "ufw active") {
			t.Errorf("missing row content: %q", lines[2])
		}
	})

	t.Run("empty headers produce no output", func(t *testing.T) {
		out := captureStdout(func() {
			Table(nil, [][]string{{"a"}})
		})
		if out != "" {
			t.Errorf("expected no output, got %q", out)
		}
	})
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string, ...interface{})
		prefix string
	}{
		{"success", Success, "✓ "},
		{"error", Error, "✗ "},
		{"warn", Warn, "! "},
		{"info", Info, "→ "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureStdout(func() {
				tt.fn("hello %s", "world")
			})
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, out)
			}
			if !strings.Contains(out, "hello world") {
				t.Errorf("missing formatted message: %q", out)
			}
		})
	}
}

func TestStep(t *testing.T) {
	out := captureStdout(func() {
		Step(3, 9, "Deploying site bundle for %s", "example.com")
	})
	if !strings.HasPrefix(out, "[3/9] ") {
		t.Errorf("expected stage prefix, got %q", out)
	}
	if !strings.Contains(out, "example.com") {
		t.Errorf("missing domain in banner: %q", out)
	}
}
