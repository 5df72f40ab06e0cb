package wa

import (
	"context"
	"testing"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
)

type mapResolver map[string]string

func (m mapResolver) ResolveLIDToPhone(ctx context.Context, lid string) string {
	if pn, ok := m[lid]; ok {
		return pn
	}
	return lid
}

func TestMessageText(t *testing.T) {
	plain := "#reports delhi"
	extended := "#leaderboard"

	cases := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, ""},
		{"conversation", &waE2E.Message{Conversation: &plain}, plain},
		{"extended", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: &extended}}, extended},
		{"no text", &waE2E.Message{}, ""},
	}
	for _, tc := range cases {
		if got := messageText(tc.msg); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestSenderID(t *testing.T) {
	ctx := context.Background()
	resolver := mapResolver{"123456789012345678": "6281234567890"}

	lid := types.JID{User: "123456789012345678", Server: types.HiddenUserServer}
	if got := senderID(ctx, lid, resolver); got != "6281234567890" {
		t.Errorf("Expected LID resolved to phone, got %q", got)
	}

	phone := types.JID{User: "6289876543210", Server: types.DefaultUserServer}
	if got := senderID(ctx, phone, resolver); got != "6289876543210" {
		t.Errorf("Expected phone kept, got %q", got)
	}

	unknown := types.JID{User: "999999999999999999", Server: types.HiddenUserServer}
	if got := senderID(ctx, unknown, nil); got != "999999999999999999" {
		t.Errorf("Expected raw LID without resolver, got %q", got)
	}
}

func TestPacingDelay(t *testing.T) {
	fixed := Pacing{MinDelay: 300 * time.Millisecond}
	if got := fixed.delay(func(int) int { t.Fatal("no randomness expected"); return 0 }); got != 300*time.Millisecond {
		t.Errorf("Expected fixed delay, got %s", got)
	}

	ranged := Pacing{MinDelay: 100 * time.Millisecond, MaxDelay: 400 * time.Millisecond}
	var bound int
	got := ranged.delay(func(n int) int { bound = n; return n - 1 })
	if bound != 301 {
		t.Errorf("Expected inclusive range of 301 ms, got %d", bound)
	}
	if got != 400*time.Millisecond {
		t.Errorf("Expected max delay at top of range, got %s", got)
	}

	if (Pacing{}).delay(nil) != 0 {
		t.Error("Zero pacing should not delay")
	}
}
