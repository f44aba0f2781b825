package notify

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"gardensync/internal/app/ports"
)

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := &Log{Logger: logger, Keep: 2}
	ctx := context.Background()

	n.Notify(ctx, ports.Notice{Kind: ports.NoticeMissing, Message: "need 2 Carrot"})
	n.Notify(ctx, ports.Notice{Kind: ports.NoticeBlocked, Message: "3 tiles blocked"})
	n.Notify(ctx, ports.Notice{Kind: ports.NoticeInventoryFull, Message: "inventory full"})

	if len(hook.Entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(hook.Entries))
	}
	if hook.Entries[0].Level != logrus.InfoLevel || hook.LastEntry().Level != logrus.WarnLevel {
		t.Fatalf("unexpected levels %v / %v", hook.Entries[0].Level, hook.LastEntry().Level)
	}
	if hook.LastEntry().Data["notice"] != ports.NoticeInventoryFull {
		t.Fatalf("notice kind not logged: %v", hook.LastEntry().Data)
	}

	recent := n.Recent()
	if len(recent) != 2 || recent[0].Kind != ports.NoticeBlocked || recent[1].Kind != ports.NoticeInventoryFull {
		t.Fatalf("unexpected recent notices %+v", recent)
	}
	if recent[1].At.IsZero() {
		t.Fatalf("notice time missing")
	}
}
