package logging_test

import (
	"testing"

	"workerd/internal/logging"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("Test defaults", func(t *testing.T) {
		t.Parallel()

		logger, err := logging.New(logging.Config{})
		if err != nil {
			t.Fatalf("expected not to receive error: got '%v'", err)
		}

		if logger == nil {
			t.Fatal("expected a logger")
		}
	})

	t.Run("Test console format", func(t *testing.T) {
		t.Parallel()

		if _, err := logging.New(logging.Config{
			Level:  "debug",
			Format: "console",
		}); err != nil {
			t.Errorf("expected not to receive error: got '%v'", err)
		}
	})

	t.Run("Test invalid level", func(t *testing.T) {
		t.Parallel()

		if _, err := logging.New(logging.Config{Level: "noisy"}); err == nil {
			t.Error("expected invalid level to return error")
		}
	})
}
