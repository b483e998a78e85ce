package usecase_test

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/riskbox/internal/usecase"
)

func TestConfirmBridge_ApproveRoundTrip(t *testing.T) {
	bridge := usecase.NewConfirmBridge(2*time.Second, zap.NewNop())

	prompts := make(chan usecase.ConfirmPrompt, 1)
	unsubscribe := bridge.OnPrompt(func(p usecase.ConfirmPrompt) {
		prompts <- p
	})
	defer unsubscribe()

	result := make(chan bool, 1)
	go func() {
		result <- bridge.Confirm(usecase.OrderTicket{Quantity: 2, Entry: 4500})
	}()

	var prompt usecase.ConfirmPrompt
	select {
	case prompt = <-prompts:
	case <-time.After(2 * time.Second):
		t.Fatal("Prompt never reached the listener")
	}
	if prompt.Ticket.Quantity != 2 || prompt.Ticket.Entry != 4500 {
		t.Errorf("Ticket did not survive the round trip: %+v", prompt.Ticket)
	}

	bridge.Resolve(prompt.ID, true)
	select {
	case approved := <-result:
		if !approved {
			t.Error("Approval reply should confirm the order")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm never returned after resolution")
	}
}

func TestConfirmBridge_Decline(t *testing.T) {
	bridge := usecase.NewConfirmBridge(2*time.Second, zap.NewNop())

	unsubscribe := bridge.OnPrompt(func(p usecase.ConfirmPrompt) {
		go bridge.Resolve(p.ID, false)
	})
	defer unsubscribe()

	if bridge.Confirm(usecase.OrderTicket{Quantity: 1}) {
		t.Error("Declined prompt should not confirm")
	}
}

func TestConfirmBridge_TimeoutDeclines(t *testing.T) {
	bridge := usecase.NewConfirmBridge(20*time.Millisecond, zap.NewNop())

	// Listener connected but never answers
	unsubscribe := bridge.OnPrompt(func(usecase.ConfirmPrompt) {})
	defer unsubscribe()

	if bridge.Confirm(usecase.OrderTicket{Quantity: 1}) {
		t.Error("Unanswered prompt should decline on timeout")
	}
}

func TestConfirmBridge_NoListenerDeclines(t *testing.T) {
	bridge := usecase.NewConfirmBridge(2*time.Second, zap.NewNop())

	start := time.Now()
	if bridge.Confirm(usecase.OrderTicket{Quantity: 1}) {
		t.Error("With nobody to ask the order must be declined")
	}
	// Declined immediately, not after the timeout
	if time.Since(start) > time.Second {
		t.Error("No-listener decline should not wait for the timeout")
	}
}

func TestConfirmBridge_ResolveUnknownID(t *testing.T) {
	bridge := usecase.NewConfirmBridge(2*time.Second, zap.NewNop())

	// Stray and duplicate replies are ignored
	bridge.Resolve(42, true)

	unsubscribe := bridge.OnPrompt(func(p usecase.ConfirmPrompt) {
		bridge.Resolve(p.ID, true)
		bridge.Resolve(p.ID, false)
	})
	defer unsubscribe()

	if !bridge.Confirm(usecase.OrderTicket{Quantity: 1}) {
		t.Error("First reply wins; the duplicate decline must be ignored")
	}
}
