package messaging

import (
	"strings"
	"testing"

	"github.com/openfleet/swarmctl/pkg/swarm"
)

func startedBus(t *testing.T, cfg Config) *Bus {
	t.Helper()
	b := New(cfg)
	if err := b.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b
}

func TestRegisterEndpoint(t *testing.T) {
	b := startedBus(t, DefaultConfig())

	if b.RegisterEndpoint("") {
		t.Error("empty endpoint id must be rejected")
	}
	if !b.RegisterEndpoint("a1") {
		t.Error("registration failed")
	}
	if b.RegisterEndpoint("a1") {
		t.Error("duplicate registration must be rejected")
	}
	if b.EndpointCount() != 1 {
		t.Errorf("endpoints = %d, want 1", b.EndpointCount())
	}

	if !b.UnregisterEndpoint("a1") {
		t.Error("unregister failed")
	}
	if b.UnregisterEndpoint("a1") {
		t.Error("unregistering twice must fail")
	}
}

func TestSendMessageRequiresKnownReceiver(t *testing.T) {
	b := startedBus(t, DefaultConfig())
	b.RegisterEndpoint("a1")

	if b.SendMessage(swarm.Message{SenderID: "a1", ReceiverID: "ghost"}) {
		t.Error("message to unknown receiver must fail")
	}
	if !b.SendMessage(swarm.Message{SenderID: "x", ReceiverID: "a1", Content: "hi"}) {
		t.Error("direct message failed")
	}

	msgs := b.ReceiveMessages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if !strings.HasPrefix(msgs[0].MessageID, "msg_") {
		t.Errorf("id = %q, want msg_ prefix", msgs[0].MessageID)
	}
	if msgs[0].Timestamp.IsZero() {
		t.Error("timestamp not stamped")
	}
}

func TestBroadcastAndDrain(t *testing.T) {
	b := startedBus(t, DefaultConfig())

	if !b.SendBroadcast(swarm.Message{SenderID: "a1", Content: "form up"}) {
		t.Fatal("broadcast failed")
	}
	if !b.SendBroadcast(swarm.Message{SenderID: "a1", Content: "hold"}) {
		t.Fatal("broadcast failed")
	}

	msgs := b.ReceiveMessages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "form up" || msgs[1].Content != "hold" {
		t.Error("messages not in send order")
	}
	for _, m := range msgs {
		if m.Type != swarm.MessageBroadcast {
			t.Errorf("type = %v, want broadcast", m.Type)
		}
	}

	// Drained
	if len(b.ReceiveMessages()) != 0 {
		t.Error("queue not drained")
	}
}

func TestQueueBound(t *testing.T) {
	b := startedBus(t, Config{QueueSize: 2})

	if !b.SendBroadcast(swarm.Message{Content: "1"}) || !b.SendBroadcast(swarm.Message{Content: "2"}) {
		t.Fatal("sends within bound failed")
	}
	if b.SendBroadcast(swarm.Message{Content: "3"}) {
		t.Error("send beyond queue bound must fail")
	}

	b.ReceiveMessages()
	if !b.SendBroadcast(swarm.Message{Content: "4"}) {
		t.Error("send after drain failed")
	}
}

func TestStoppedBusRejectsTraffic(t *testing.T) {
	b := New(DefaultConfig())
	b.RegisterEndpoint("a1")

	if b.SendBroadcast(swarm.Message{Content: "x"}) {
		t.Error("stopped bus must reject broadcasts")
	}
	if b.SendMessage(swarm.Message{ReceiverID: "a1"}) {
		t.Error("stopped bus must reject direct messages")
	}
}
