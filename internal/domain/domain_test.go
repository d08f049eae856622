package domain

import (
	"errors"
	"testing"
)

func TestRequireSettings_AllPresent(t *testing.T) {
	if err := RequireSettings("search", "endpoint", "https://x", "api_key", "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireSettings_Missing(t *testing.T) {
	err := RequireSettings("search", "endpoint", "", "api_key", "k", "index_name", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}

	var mse *MissingSettingError
	if !errors.As(err, &mse) {
		t.Fatalf("expected MissingSettingError, got %T", err)
	}
	if len(mse.Settings) != 2 || mse.Settings[0] != "endpoint" || mse.Settings[1] != "index_name" {
		t.Errorf("unexpected missing settings: %v", mse.Settings)
	}

	want := "configuration error: search requires endpoint, index_name"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
