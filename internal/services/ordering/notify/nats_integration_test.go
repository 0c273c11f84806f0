package notify

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func TestNATSPublisherAgainstServer(t *testing.T) {
	url := os.Getenv("RESTOBOT_TEST_NATS_URL")
	if url == "" {
		t.Skip("RESTOBOT_TEST_NATS_URL not set")
	}
	sub, err := nats.Connect(url)
	if err != nil {
		t.Skipf("nats unavailable: %v", err)
	}
	defer sub.Close()
	received := make(chan *nats.Msg, 1)
	subscription, err := sub.ChanSubscribe(SubjectPrefix+">", received)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer subscription.Unsubscribe()
	if err := sub.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	publisher, err := DialNATS(url)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer publisher.Close()
	if err := publisher.Notify(context.Background(), Created(sampleOrder())); err != nil {
		t.Fatalf("notify: %v", err)
	}

	select {
	case msg := <-received:
		var event Event
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Subject != Subject(EventOrderCreated) || event.OrderID != sampleOrder().ID {
			t.Fatalf("got %s %+v", msg.Subject, event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
