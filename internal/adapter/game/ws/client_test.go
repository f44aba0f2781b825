package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"

	"gardensync/internal/app/ports"
	"gardensync/internal/domain/garden"
)

type fakeGame struct {
	t        *testing.T
	upgrader websocket.Upgrader
	atoms    map[string]json.RawMessage
	received chan Message

	mu     sync.Mutex
	conns  []*websocket.Conn
	accept int
}

func newFakeGame(t *testing.T, atoms map[string]json.RawMessage) (*fakeGame, *httptest.Server) {
	g := &fakeGame{t: t, atoms: atoms, received: make(chan Message, 64)}
	srv := httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(srv.Close)
	return g, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (g *fakeGame) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.conns = append(g.conns, conn)
	g.accept++
	g.mu.Unlock()
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(m Message) {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteJSON(m)
	}
	if v, ok := g.atom(ports.LabelPlayer); ok {
		send(Message{Type: MsgAtom, Label: ports.LabelPlayer, Value: v})
	}
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case MsgSelect:
			if v, ok := g.atom(msg.Label); ok {
				send(Message{ID: msg.ID, Type: MsgValue, Label: msg.Label, Value: v})
			} else {
				send(Message{ID: msg.ID, Type: MsgError, Message: "unknown atom"})
			}
		case MsgPing:
			send(Message{ID: msg.ID, Type: MsgPong})
		case MsgSet:
			g.setAtom(msg.Label, msg.Value)
			g.received <- msg
		default:
			g.received <- msg
		}
	}
}

func (g *fakeGame) atom(label string) (json.RawMessage, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.atoms[label]
	return v, ok
}

// setAtom changes game state without pushing an atom frame.
func (g *fakeGame) setAtom(label string, v json.RawMessage) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.atoms == nil {
		g.atoms = map[string]json.RawMessage{}
	}
	g.atoms[label] = v
}

func (g *fakeGame) dropAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.conns {
		_ = c.Close()
	}
	g.conns = nil
}

func (g *fakeGame) accepted() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accept
}

func (g *fakeGame) next(t *testing.T) Message {
	t.Helper()
	select {
	case m := <-g.received:
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("game received nothing")
		return Message{}
	}
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	logger, _ := test.NewNullLogger()
	c := New(wsURL(srv), Options{
		SelectTimeout: time.Second,
		ReconnectMin:  5 * time.Millisecond,
		ReconnectMax:  20 * time.Millisecond,
		Logger:        logger,
	})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPushedAtomsAreMirrored(t *testing.T) {
	_, srv := newFakeGame(t, map[string]json.RawMessage{ports.LabelPlayer: json.RawMessage(`{"id":"p1"}`)})
	c := newClient(t, srv)

	eventually(t, "player atom", func() bool {
		_, err := c.cache.Select(context.Background(), ports.LabelPlayer)
		return err == nil
	})
	got, err := c.Select(context.Background(), ports.LabelPlayer)
	if err != nil || string(got) != `{"id":"p1"}` {
		t.Fatalf("got=%s err=%v", got, err)
	}

	seen := make(chan string, 1)
	unsubscribe := c.Subscribe(ports.LabelPlayer, func(v json.RawMessage) { seen <- string(v) })
	defer unsubscribe()
	c.handle(Message{Type: MsgAtom, Label: ports.LabelPlayer, Value: json.RawMessage(`{"id":"p2"}`)})
	select {
	case v := <-seen:
		if v != `{"id":"p2"}` {
			t.Fatalf("subscriber got %s", v)
		}
	case <-time.After(time.Second):
		t.Fatalf("subscriber not notified")
	}
}

func TestSelectRoundTrip(t *testing.T) {
	_, srv := newFakeGame(t, map[string]json.RawMessage{ports.LabelInventory: json.RawMessage(`{"items":[]}`)})
	c := newClient(t, srv)

	got, err := c.Select(context.Background(), ports.LabelInventory)
	if err != nil || string(got) != `{"items":[]}` {
		t.Fatalf("got=%s err=%v", got, err)
	}
	if _, err := c.Select(context.Background(), ports.LabelMap); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectReadsUnpushedChanges(t *testing.T) {
	game, srv := newFakeGame(t, map[string]json.RawMessage{ports.LabelInventory: json.RawMessage(`{"items":[]}`)})
	c := newClient(t, srv)

	if got, err := c.Select(context.Background(), ports.LabelInventory); err != nil || string(got) != `{"items":[]}` {
		t.Fatalf("first select: got=%s err=%v", got, err)
	}
	game.setAtom(ports.LabelInventory, json.RawMessage(`{"items":[{"id":"p1","itemType":"Plant","species":"Carrot"}]}`))
	got, err := c.Select(context.Background(), ports.LabelInventory)
	if err != nil {
		t.Fatalf("second select: %v", err)
	}
	if want := `{"items":[{"id":"p1","itemType":"Plant","species":"Carrot"}]}`; string(got) != want {
		t.Fatalf("stale inventory: got=%s want=%s", got, want)
	}
}

func TestSendWritesCommandFrame(t *testing.T) {
	game, srv := newFakeGame(t, nil)
	c := newClient(t, srv)

	if err := c.Send(context.Background(), garden.PlaceDecor(garden.PlaneBoardwalk, 4, "WoodBench", 90)); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg := game.next(t)
	if msg.Type != MsgCommand || msg.Intent == nil {
		t.Fatalf("unexpected frame %+v", msg)
	}
	if *msg.Intent != garden.PlaceDecor(garden.PlaneBoardwalk, 4, "WoodBench", 90) {
		t.Fatalf("intent changed on the wire: %s", msg.Intent)
	}

	if err := c.Set(context.Background(), ports.LabelUserSlots, json.RawMessage(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if msg := game.next(t); msg.Type != MsgSet || msg.Label != ports.LabelUserSlots {
		t.Fatalf("unexpected frame %+v", msg)
	}
	if v, err := c.Select(context.Background(), ports.LabelUserSlots); err != nil || string(v) != `[]` {
		t.Fatalf("set should update the mirror: %s %v", v, err)
	}
}

func TestSendWithoutConnection(t *testing.T) {
	c := New("ws://127.0.0.1:1", Options{})
	if err := c.Send(context.Background(), garden.PotPlant(1)); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if err := c.Set(context.Background(), ports.LabelMap, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("offline set should still update the mirror: %v", err)
	}
	if v, err := c.Select(context.Background(), ports.LabelMap); err != nil || string(v) != `{}` {
		t.Fatalf("offline select should answer from the mirror: got=%s err=%v", v, err)
	}
	_, err := c.Select(context.Background(), ports.LabelPlayer)
	if !errors.Is(err, ErrNotConnected) || !errors.Is(err, ports.ErrNotReady) {
		t.Fatalf("offline select of an unmirrored atom: got=%v", err)
	}
}

func TestReconnects(t *testing.T) {
	game, srv := newFakeGame(t, nil)
	c := newClient(t, srv)

	game.dropAll()
	eventually(t, "reconnect", func() bool { return game.accepted() >= 2 && c.IsConnected() })

	if err := c.Send(context.Background(), garden.PotPlant(3)); err != nil {
		t.Fatalf("send after reconnect: %v", err)
	}
	if msg := game.next(t); msg.Intent == nil || *msg.Intent != garden.PotPlant(3) {
		t.Fatalf("unexpected frame %+v", msg)
	}
}
