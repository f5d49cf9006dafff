package input

import (
	"io"
	"testing"
)

func TestStringReader_ReadString(t *testing.T) {
	t.Run("single input", func(t *testing.T) {
		reader := NewStringReader("example.com\n")
		result, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString failed: %v", err)
		}
		if result != "example.com\n" {
			t.Errorf("expected 'example.com\\n', got %q", result)
		}
	})

	t.Run("multiple inputs in order", func(t *testing.T) {
		reader := NewStringReader("example.com\n", "ops@example.com\n")

		first, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString for first failed: %v", err)
		}
		if first != "example.com\n" {
			t.Errorf("expected domain first, got %q", first)
		}

		second, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString for second failed: %v", err)
		}
		if second != "ops@example.com\n" {
			t.Errorf("expected email second, got %q", second)
		}
	})

	t.Run("EOF after all inputs consumed", func(t *testing.T) {
		reader := NewStringReader("y\n")
		if _, err := reader.ReadString('\n'); err != nil {
			t.Fatalf("ReadString failed: %v", err)
		}

		result, err := reader.ReadString('\n')
		if err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
		if result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})

	t.Run("empty reader returns EOF immediately", func(t *testing.T) {
		reader := NewStringReader()
		if _, err := reader.ReadString('\n'); err != io.EOF {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})
}
