package services

import (
	"context"
	"testing"
	"time"

	"github.com/worklane/worklane-backend/internal/models"
)

func drain(ch <-chan RealtimeEvent) (RealtimeEvent, bool) {
	select {
	case evt, ok := <-ch:
		return evt, ok
	case <-time.After(100 * time.Millisecond):
		return RealtimeEvent{}, false
	}
}

func TestTopicHub_PublishToSubscriber(t *testing.T) {
	h := newTopicHub()
	ch, cancel := h.Subscribe(ConversationTopic("c1"))
	defer cancel()

	h.publish(ConversationTopic("c1"), RealtimeEvent{Type: EventTypeMessage, ConversationID: "c1"})

	evt, ok := drain(ch)
	if !ok {
		t.Fatal("no event delivered to subscriber")
	}
	if evt.Type != EventTypeMessage || evt.ConversationID != "c1" {
		t.Errorf("delivered event = %+v", evt)
	}
}

// A chat view must never see another conversation's messages.
func TestTopicHub_NoCrossTopicLeakage(t *testing.T) {
	h := newTopicHub()
	ch1, cancel1 := h.Subscribe(ConversationTopic("c1"))
	ch2, cancel2 := h.Subscribe(ConversationTopic("c2"))
	defer cancel1()
	defer cancel2()

	h.publish(ConversationTopic("c1"), RealtimeEvent{Type: EventTypeMessage, ConversationID: "c1"})

	if _, ok := drain(ch1); !ok {
		t.Error("subscriber of c1 got nothing")
	}
	if _, ok := drain(ch2); ok {
		t.Error("subscriber of c2 received c1's event")
	}
}

func TestTopicHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := newTopicHub()
	ch, cancel := h.Subscribe(InboxTopic("u1"))

	cancel()
	// Cancel twice must be safe (view unmount races with conversation switch).
	cancel()

	h.publish(InboxTopic("u1"), RealtimeEvent{Type: EventTypeConversation})

	if evt, ok := <-ch; ok {
		t.Errorf("received %+v after unsubscribe, channel should be closed", evt)
	}
}

// Switching conversations closes the old subscription before the new one
// delivers, so no duplicate or stale delivery occurs.
func TestTopicHub_SwitchConversation(t *testing.T) {
	h := newTopicHub()

	ch1, cancel1 := h.Subscribe(ConversationTopic("c1"))
	cancel1()
	ch2, cancel2 := h.Subscribe(ConversationTopic("c2"))
	defer cancel2()

	h.publish(ConversationTopic("c1"), RealtimeEvent{Type: EventTypeMessage, ConversationID: "c1"})
	h.publish(ConversationTopic("c2"), RealtimeEvent{Type: EventTypeMessage, ConversationID: "c2"})

	if _, ok := <-ch1; ok {
		t.Error("old subscription still delivering after switch")
	}
	evt, ok := drain(ch2)
	if !ok || evt.ConversationID != "c2" {
		t.Errorf("new subscription delivered %+v, ok=%v", evt, ok)
	}
}

// A full subscriber buffer must not block the fan-out.
func TestTopicHub_SlowConsumerDoesNotBlock(t *testing.T) {
	h := newTopicHub()
	_, cancel := h.Subscribe(ConversationTopic("c1"))
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.publish(ConversationTopic("c1"), RealtimeEvent{Type: EventTypeMessage})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow consumer")
	}
}

// Both participants can have the same conversation open; each view mutates
// its delivered message (read flag), so the fan-out must never hand two
// subscribers the same pointer.
func TestTopicHub_SubscribersGetOwnMessageCopy(t *testing.T) {
	h := newTopicHub()
	ch1, cancel1 := h.Subscribe(ConversationTopic("c1"))
	ch2, cancel2 := h.Subscribe(ConversationTopic("c1"))
	defer cancel1()
	defer cancel2()

	msg := &models.ChatMessage{ConversationID: "c1", SenderID: "u1", Body: "hi"}
	h.publish(ConversationTopic("c1"), RealtimeEvent{
		Type:           EventTypeMessage,
		ConversationID: "c1",
		Message:        msg,
	})

	evt1, ok1 := drain(ch1)
	evt2, ok2 := drain(ch2)
	if !ok1 || !ok2 {
		t.Fatal("event not delivered to both subscribers")
	}
	if evt1.Message == evt2.Message {
		t.Fatal("subscribers received the same message pointer")
	}
	if evt1.Message == msg || evt2.Message == msg {
		t.Error("delivered message aliases the published one")
	}

	evt1.Message.Read = true
	if evt2.Message.Read || msg.Read {
		t.Error("read flag mutation leaked across subscribers")
	}
}

// Without Redis the publisher degrades to a no-op like the rest of the
// package, it must not panic.
func TestPublishEvent_NoRedis(t *testing.T) {
	err := PublishEvent(context.Background(), ConversationTopic("c1"), RealtimeEvent{
		Type:           EventTypeMessage,
		ConversationID: "c1",
	})
	if err != nil {
		t.Errorf("PublishEvent() without Redis = %v, want nil", err)
	}
}

func TestTopics(t *testing.T) {
	if got := ConversationTopic("abc"); got != "conv:abc" {
		t.Errorf("ConversationTopic = %q", got)
	}
	if got := InboxTopic("u1"); got != "inbox:u1" {
		t.Errorf("InboxTopic = %q", got)
	}
}
