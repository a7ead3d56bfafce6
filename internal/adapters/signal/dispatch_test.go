package signal

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/avolkov/pulse/internal/config"
	"github.com/avolkov/pulse/internal/relay"
)

type fakeSender struct {
	mu     sync.Mutex
	frames []relay.Frame
	closed bool
}

func (f *fakeSender) TrySend(fr relay.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSender) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, fr := range f.frames {
		var m map[string]any
		if err := json.Unmarshal(fr, &m); err != nil {
			t.Fatalf("bad frame %q: %v", fr, err)
		}
		out = append(out, m)
	}
	return out
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func newTestController() *Controller {
	cfg := &config.Config{
		Mode:         "release",
		ReadLimit:    32768,
		PingPeriod:   time.Minute,
		WriteTimeout: time.Second,
		SendBuffer:   8,
	}
	return NewController(relay.NewBroker(), cfg)
}

// feed pushes a raw client message through the dispatch table the same
// way readPump would.
func feed(ctl *Controller, rc *relay.Conn, raw string) {
	ctl.handleMessage(rc, []byte(raw))
}

func TestTypingRelayScenario(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b := ctl.Broker.Connect(sb)

	feed(ctl, a, `{"type":"join_conversation","conversationId":"c1"}`)
	feed(ctl, b, `{"type":"join_conversation","conversationId":"c1"}`)

	feed(ctl, a, `{"type":"typing_start","conversationId":"c1","userId":"u1","userName":"Alice"}`)

	evs := sb.events(t)
	if len(evs) != 1 {
		t.Fatalf("B got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev["type"] != "user_typing" || ev["userId"] != "u1" || ev["userName"] != "Alice" || ev["isTyping"] != true {
		t.Errorf("unexpected user_typing event: %v", ev)
	}
	if sa.count() != 0 {
		t.Errorf("A received %d events, want 0", sa.count())
	}

	feed(ctl, a, `{"type":"typing_stop","conversationId":"c1","userId":"u1","userName":"Alice"}`)
	evs = sb.events(t)
	if len(evs) != 2 || evs[1]["isTyping"] != false {
		t.Errorf("typing_stop not relayed as isTyping=false: %v", evs)
	}
}

func TestReactionRelay(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b := ctl.Broker.Connect(sb)
	feed(ctl, a, `{"type":"join_conversation","conversationId":"c1"}`)
	feed(ctl, b, `{"type":"join_conversation","conversationId":"c1"}`)

	feed(ctl, a, `{"type":"message_reaction","messageId":"m1","conversationId":"c1","reaction":"❤️","userId":"u1","userName":"Alice"}`)

	evs := sb.events(t)
	if len(evs) != 1 {
		t.Fatalf("B got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev["type"] != "message_reaction_update" || ev["messageId"] != "m1" || ev["reaction"] != "❤️" {
		t.Errorf("unexpected reaction event: %v", ev)
	}
	if sa.count() != 0 {
		t.Errorf("sender received its own reaction")
	}
}

func TestCallSignalingRoundTrip(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b := ctl.Broker.Connect(sb)

	feed(ctl, a, `{"type":"join_user_room","userId":"u1"}`)
	feed(ctl, a, `{"type":"join_conversation","conversationId":"c1"}`)
	feed(ctl, b, `{"type":"join_user_room","userId":"u2"}`)
	feed(ctl, b, `{"type":"join_conversation","conversationId":"c1"}`)

	feed(ctl, a, `{"type":"call_initiate","conversationId":"c1","callerId":"u1","callerName":"Alice","callType":"video"}`)

	evs := sb.events(t)
	if len(evs) != 1 {
		t.Fatalf("B got %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev["type"] != "incoming_call" || ev["callerId"] != "u1" || ev["callerName"] != "Alice" ||
		ev["callType"] != "video" || ev["conversationId"] != "c1" {
		t.Errorf("unexpected incoming_call: %v", ev)
	}
	if sa.count() != 0 {
		t.Errorf("caller received its own incoming_call")
	}

	feed(ctl, b, `{"type":"call_answer","conversationId":"c1","userId":"u2"}`)
	aEvs := sa.events(t)
	if len(aEvs) != 1 || aEvs[0]["type"] != "call_answered" || aEvs[0]["userId"] != "u2" {
		t.Errorf("caller did not get call_answered: %v", aEvs)
	}

	feed(ctl, a, `{"type":"call_end","conversationId":"c1","userId":"u1"}`)
	evs = sb.events(t)
	if len(evs) != 2 || evs[1]["type"] != "call_ended" {
		t.Errorf("callee did not get call_ended: %v", evs)
	}
}

func TestCallInitiateRejectsBadType(t *testing.T) {
	ctl := newTestController()
	sa := &fakeSender{}
	a := ctl.Broker.Connect(sa)
	feed(ctl, a, `{"type":"join_conversation","conversationId":"c1"}`)

	feed(ctl, a, `{"type":"call_initiate","conversationId":"c1","callerId":"u1","callerName":"Alice","callType":"hologram"}`)

	evs := sa.events(t)
	if len(evs) != 1 || evs[0]["type"] != "error" {
		t.Errorf("expected error reply, got %v", evs)
	}
}

func TestWebRTCOfferProvenance(t *testing.T) {
	ctl := newTestController()
	sa, s1, s2 := &fakeSender{}, &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b1 := ctl.Broker.Connect(s1)
	b2 := ctl.Broker.Connect(s2)

	feed(ctl, a, `{"type":"join_user_room","userId":"u1"}`)
	feed(ctl, b1, `{"type":"join_user_room","userId":"u2"}`)
	feed(ctl, b2, `{"type":"join_user_room","userId":"u2"}`)

	feed(ctl, a, `{"type":"webrtc_offer","conversationId":"c1","targetUserId":"u2","offer":{"type":"offer","sdp":"v=0"}}`)

	for i, s := range []*fakeSender{s1, s2} {
		evs := s.events(t)
		if len(evs) != 1 {
			t.Fatalf("device %d got %d events, want 1", i, len(evs))
		}
		ev := evs[0]
		if ev["type"] != "webrtc_offer" || ev["fromUserId"] != "u1" {
			t.Errorf("device %d: unexpected event %v", i, ev)
		}
		offer, ok := ev["offer"].(map[string]any)
		if !ok || offer["sdp"] != "v=0" {
			t.Errorf("device %d: offer not forwarded verbatim: %v", i, ev["offer"])
		}
	}
	if sa.count() != 0 {
		t.Errorf("offer echoed back to sender")
	}
}

func TestWebRTCAnswerWithoutIdentity(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b := ctl.Broker.Connect(sb)
	feed(ctl, b, `{"type":"join_user_room","userId":"u2"}`)

	// A never registered; provenance defaults to empty string
	feed(ctl, a, `{"type":"webrtc_answer","conversationId":"c1","targetUserId":"u2","answer":{"type":"answer","sdp":"v=0"}}`)

	evs := sb.events(t)
	if len(evs) != 1 {
		t.Fatalf("target got %d events, want 1", len(evs))
	}
	if evs[0]["fromUserId"] != "" {
		t.Errorf("fromUserId = %v, want empty", evs[0]["fromUserId"])
	}
}

func TestWebRTCCandidateRelay(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b := ctl.Broker.Connect(sb)
	feed(ctl, a, `{"type":"join_user_room","userId":"u1"}`)
	feed(ctl, b, `{"type":"join_user_room","userId":"u2"}`)

	feed(ctl, a, `{"type":"webrtc_ice_candidate","conversationId":"c1","targetUserId":"u2","candidate":{"candidate":"candidate:1 1 UDP 2122252543 192.0.2.1 54400 typ host","sdpMid":"0","sdpMLineIndex":0}}`)

	evs := sb.events(t)
	if len(evs) != 1 {
		t.Fatalf("target got %d events, want 1", len(evs))
	}
	cand, ok := evs[0]["candidate"].(map[string]any)
	if !ok || cand["sdpMid"] != "0" {
		t.Errorf("candidate not forwarded verbatim: %v", evs[0]["candidate"])
	}
}

func TestPresenceEventsGoGlobal(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	ctl.Broker.Connect(sb)

	feed(ctl, a, `{"type":"user_online","userId":"u1"}`)

	// presence is a global fan-out; the sender hears it too
	for i, s := range []*fakeSender{sa, sb} {
		evs := s.events(t)
		if len(evs) != 1 {
			t.Fatalf("conn %d got %d events, want 1", i, len(evs))
		}
		if evs[0]["type"] != "user_status_change" || evs[0]["status"] != "online" {
			t.Errorf("conn %d: unexpected event %v", i, evs[0])
		}
	}
}

func TestUnknownEventDropped(t *testing.T) {
	ctl := newTestController()
	sa := &fakeSender{}
	a := ctl.Broker.Connect(sa)

	feed(ctl, a, `{"type":"time_travel"}`)
	feed(ctl, a, `not json at all`)

	if sa.count() != 0 {
		t.Errorf("unknown/bad input produced %d replies, want 0", sa.count())
	}
}

func TestBadPayloadGetsErrorReply(t *testing.T) {
	ctl := newTestController()
	sa := &fakeSender{}
	a := ctl.Broker.Connect(sa)

	feed(ctl, a, `{"type":"typing_start","userId":"u1"}`)

	evs := sa.events(t)
	if len(evs) != 1 || evs[0]["type"] != "error" {
		t.Errorf("expected error reply for missing conversationId, got %v", evs)
	}
}

func TestLeaveConversationStopsDelivery(t *testing.T) {
	ctl := newTestController()
	sa, sb := &fakeSender{}, &fakeSender{}
	a := ctl.Broker.Connect(sa)
	b := ctl.Broker.Connect(sb)
	feed(ctl, a, `{"type":"join_conversation","conversationId":"c1"}`)
	feed(ctl, b, `{"type":"join_conversation","conversationId":"c1"}`)

	feed(ctl, b, `{"type":"leave_conversation","conversationId":"c1"}`)
	feed(ctl, a, `{"type":"typing_start","conversationId":"c1","userId":"u1","userName":"Alice"}`)

	if sb.count() != 0 {
		t.Errorf("member who left still got %d events", sb.count())
	}
}
