package keyring

import (
	"errors"
	"testing"
)

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	if err := store.Set("default", "seed"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}

	got, err := store.Get("default")
	if err != nil || got != "seed" {
		t.Errorf("Get() = %q, %v", got, err)
	}

	store.SetFailing(true)
	if err := store.IsAvailable(); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("IsAvailable() on failing store = %v", err)
	}
	if _, err := store.Get("default"); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Get() on failing store = %v", err)
	}
	store.SetFailing(false)

	if err := store.Delete("default"); err != nil {
		t.Errorf("Delete() failed: %v", err)
	}
	if _, err := store.Get("default"); !errors.Is(err, ErrSecretNotFound) {
		t.Errorf("Get() after Delete() = %v", err)
	}
}

func TestServiceName(t *testing.T) {
	if got := serviceName("default"); got != "cbsh - default" {
		t.Errorf("serviceName() = %q", got)
	}
}

func TestWrapKeyringError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType error
	}{
		{name: "nil error"},
		{name: "denied error", err: errors.New("permission denied"), wantType: ErrKeyringAccessDenied},
		{name: "unavailable error", err: errors.New("secret service not found"), wantType: ErrKeyringUnavailable},
		{name: "generic error", err: errors.New("some other error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := wrapKeyringError(tt.err, "test")

			if tt.err == nil {
				if result != nil {
					t.Errorf("wrapKeyringError(nil) should return nil")
				}
				return
			}

			if tt.wantType != nil && !errors.Is(result, tt.wantType) {
				t.Errorf("wrapKeyringError() should wrap with %v, got %v", tt.wantType, result)
			}
			if tt.wantType == nil && !errors.Is(result, tt.err) {
				t.Errorf("wrapKeyringError() should wrap the original error, got %v", result)
			}
		})
	}
}
