package postgres_test

import (
	"context"
	"strings"
	"testing"
)

// go test -v --run TestPreferencesRoundTrip
func TestPreferencesRoundTrip(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	walletID := "test_wallet_prefs"
	prefs := map[string]any{
		"num_addresses_used": 3,
		"selected_theme":     "dark",
	}
	if err := client.StorePreferences(ctx, walletID, prefs); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	record, err := client.Preferences(ctx, walletID)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected stored preferences, got nil")
	}
	if !strings.Contains(string(record.Preferences), "dark") {
		t.Errorf("stored payload missing data: %s", record.Preferences)
	}

	// Upsert replaces the document in place.
	if err := client.StorePreferences(ctx, walletID, map[string]any{"selected_theme": "light"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	record, err = client.Preferences(ctx, walletID)
	if err != nil {
		t.Fatalf("re-read failed: %v", err)
	}
	if strings.Contains(string(record.Preferences), "dark") {
		t.Errorf("old payload survived the upsert: %s", record.Preferences)
	}
}

// go test -v --run TestPreferencesSizeBound
func TestPreferencesSizeBound(t *testing.T) {
	client := testClient(t)

	huge := map[string]any{"blob": strings.Repeat("x", 100001)}
	if err := client.StorePreferences(context.Background(), "test_wallet_big", huge); err == nil {
		t.Fatal("expected oversized preferences to be refused")
	}
}

// go test -v --run TestPreferencesMissing
func TestPreferencesMissing(t *testing.T) {
	client := testClient(t)

	record, err := client.Preferences(context.Background(), "test_wallet_never_stored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil for unknown wallet, got %+v", record)
	}
}

// go test -v --run TestChatHandle
func TestChatHandle(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()

	walletID := "test_wallet_chat"
	if err := client.StoreChatHandle(ctx, walletID, "good_name1"); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	record, err := client.ChatHandle(ctx, walletID)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if record == nil || record.Handle != "good_name1" {
		t.Fatalf("unexpected handle record: %+v", record)
	}

	// Syntax is enforced on write.
	bad := []string{"ab", "has space", "waytoolonghandle", "bad!char"}
	for _, handle := range bad {
		if err := client.StoreChatHandle(ctx, walletID, handle); err == nil {
			t.Errorf("expected handle %q to be refused", handle)
		}
	}
}
