package bus

import (
	"context"
	"testing"

	"github.com/yungbote/trailhead-backend/internal/realtime"
)

func TestLocalBusForwards(t *testing.T) {
	b := NewLocalBus()
	var got []realtime.Message
	if err := b.StartForwarder(context.Background(), func(m realtime.Message) { got = append(got, m) }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := b.Publish(context.Background(), realtime.Message{Channel: "u", Event: realtime.EventRecordCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0].Event != realtime.EventRecordCreated {
		t.Fatalf("forwarded: got=%+v", got)
	}
	if len(b.Published()) != 1 {
		t.Fatalf("Published: want=1 got=%d", len(b.Published()))
	}
}
