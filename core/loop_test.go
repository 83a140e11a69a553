package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeTransport serves scripted fetch results, then blocks like an idle
// long poll until the context ends.
type fakeTransport struct {
	mu      sync.Mutex
	script  []fetchResult
	calls   int
	offsets []*int64
	sent    []Reply
	sendErr func(Reply) error
}

type fetchResult struct {
	updates []Update
	err     error
}

func (f *fakeTransport) FetchUpdates(ctx context.Context, offset *int64, _ time.Duration) ([]Update, error) {
	f.mu.Lock()
	if offset != nil {
		v := *offset
		offset = &v
	}
	f.offsets = append(f.offsets, offset)
	call := f.calls
	f.calls++
	f.mu.Unlock()

	if call < len(f.script) {
		r := f.script[call]
		return append([]Update(nil), r.updates...), r.err
	}
	<-ctx.Done()
	return nil, &TransportError{Op: "getUpdates", Err: ctx.Err()}
}

func (f *fakeTransport) SendReply(_ context.Context, r Reply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		if err := f.sendErr(r); err != nil {
			return err
		}
	}
	f.sent = append(f.sent, r)
	return nil
}

func (f *fakeTransport) sentTexts() map[int64]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]string)
	for _, r := range f.sent {
		out[r.ChatID] = r.Text
	}
	return out
}

func (f *fakeTransport) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingRouter replies with the update text, optionally after a delay.
type recordingRouter struct {
	mu     sync.Mutex
	routed []int64
	delay  func(Update) time.Duration
	hook   func(Update)
}

func (r *recordingRouter) Route(_ context.Context, u Update) (*Reply, error) {
	if r.hook != nil {
		r.hook(u)
	}
	if r.delay != nil {
		time.Sleep(r.delay(u))
	}
	r.mu.Lock()
	r.routed = append(r.routed, u.ID)
	r.mu.Unlock()
	return &Reply{ChatID: u.ChatID, Text: u.Text}, nil
}

func (r *recordingRouter) ids() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.routed...)
}

func runUntilIdle(t *testing.T, l *Loop, ft *fakeTransport) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for ft.fetchCalls() <= len(ft.script) {
		select {
		case <-deadline:
			t.Fatal("loop did not drain the script")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestLoopEndToEnd(t *testing.T) {
	ft := &fakeTransport{script: []fetchResult{{updates: []Update{
		{ID: 5, ChatID: 1, Text: "/start"},
		{ID: 6, ChatID: 2, Text: "Work from home, earn $5000/week!"},
	}}}}
	cls := &stubClassifier{result: Classification{Label: 1, Probability: 0.91}}
	cursor := &Cursor{}
	l := NewLoop(ft, newTestDispatcher(t, cls), cursor, LoopConfig{}, testLogger())

	runUntilIdle(t, l, ft)

	sent := ft.sentTexts()
	if len(ft.sent) != 2 {
		t.Fatalf("sent %d replies, want 2", len(ft.sent))
	}
	if !strings.Contains(sent[1], "JobShield AI") || strings.Contains(sent[1], "Report") {
		t.Errorf("chat 1 got %q, want welcome", sent[1])
	}
	if !strings.Contains(sent[2], "FAKE JOB") || !strings.Contains(sent[2], "91.0%") {
		t.Errorf("chat 2 got %q, want flagged verdict with 91.0", sent[2])
	}
	if len(cls.texts) != 1 || cls.texts[0] != "Work from home, earn $5000/week!" {
		t.Errorf("classifier saw %q", cls.texts)
	}

	if next, ok := cursor.Current(); !ok || next != 7 {
		t.Errorf("cursor = (%d, %v), want (7, true)", next, ok)
	}
	if ft.offsets[0] != nil {
		t.Errorf("first fetch offset = %d, want unset", *ft.offsets[0])
	}
	if ft.offsets[1] == nil || *ft.offsets[1] != 7 {
		t.Errorf("second fetch offset = %v, want 7", ft.offsets[1])
	}
}

func TestLoopProcessesInIDOrder(t *testing.T) {
	ft := &fakeTransport{script: []fetchResult{{updates: []Update{
		{ID: 9, ChatID: 1, Text: "c"},
		{ID: 7, ChatID: 1, Text: "a"},
		{ID: 8, ChatID: 1, Text: "b"},
	}}}}
	router := &recordingRouter{}
	cursor := &Cursor{}
	l := NewLoop(ft, router, cursor, LoopConfig{}, testLogger())

	runUntilIdle(t, l, ft)

	got := router.ids()
	want := []int64{7, 8, 9}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("routed %v, want %v", got, want)
	}
	if next, _ := cursor.Current(); next != 10 {
		t.Errorf("cursor = %d, want 10", next)
	}
}

func TestLoopEmptyBatches(t *testing.T) {
	ft := &fakeTransport{script: []fetchResult{{}, {}, {}}}
	router := &recordingRouter{}
	cursor := &Cursor{}
	l := NewLoop(ft, router, cursor, LoopConfig{}, testLogger())

	runUntilIdle(t, l, ft)

	if _, ok := cursor.Current(); ok {
		t.Error("cursor moved on empty batches")
	}
	if len(ft.sent) != 0 || len(router.ids()) != 0 {
		t.Errorf("empty batches produced %d replies", len(ft.sent))
	}
	for i, off := range ft.offsets {
		if off != nil {
			t.Errorf("fetch %d offset = %d, want unset", i, *off)
		}
	}
}

func TestLoopSendFailureIsolation(t *testing.T) {
	ft := &fakeTransport{
		script: []fetchResult{{updates: []Update{
			{ID: 1, ChatID: 10, Text: "first"},
			{ID: 2, ChatID: 20, Text: "second"},
		}}},
		sendErr: func(r Reply) error {
			if r.ChatID == 10 {
				return &TransportError{Op: "sendMessage", Err: errors.New("chat not found")}
			}
			return nil
		},
	}
	router := &recordingRouter{}
	cursor := &Cursor{}
	l := NewLoop(ft, router, cursor, LoopConfig{}, testLogger())

	var acked []int64
	l.onAdvance = func(u Update) { acked = append(acked, u.ID) }

	runUntilIdle(t, l, ft)

	if fmt.Sprint(acked) != "[1 2]" {
		t.Errorf("acknowledged %v, want [1 2]", acked)
	}
	if sent := ft.sentTexts(); sent[20] != "second" {
		t.Errorf("update 2 not answered: %v", sent)
	}
	st := l.Stats()
	if st.Processed != 2 || st.Replied != 1 || st.SendErrors != 1 {
		t.Errorf("stats = %+v, want processed 2, replied 1, send errors 1", st)
	}
	if !st.OffsetSet || st.Offset != 3 {
		t.Errorf("stats offset = %d (%v), want 3", st.Offset, st.OffsetSet)
	}
}

func TestLoopBacksOffOnFetchError(t *testing.T) {
	fail := &TransportError{Op: "getUpdates", Err: errors.New("api returned ok=false")}
	ft := &fakeTransport{script: []fetchResult{
		{err: fail},
		{err: fail},
		{updates: []Update{{ID: 40, ChatID: 1, Text: "hi"}}},
	}}
	router := &recordingRouter{}
	cursor := &Cursor{}
	l := NewLoop(ft, router, cursor, LoopConfig{Backoff: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	runUntilIdle(t, l, ft)

	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("two failures took %v, want at least two backoff intervals", elapsed)
	}
	if ids := router.ids(); len(ids) != 1 || ids[0] != 40 {
		t.Errorf("routed %v, want [40]", ids)
	}
	if next, _ := cursor.Current(); next != 41 {
		t.Errorf("cursor = %d, want 41", next)
	}
}

func TestLoopCancellationInterruptsPoll(t *testing.T) {
	ft := &fakeTransport{}
	l := NewLoop(ft, &recordingRouter{}, nil, LoopConfig{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	for ft.fetchCalls() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after context cancellation")
	}
}

func TestLoopCancelledBeforeStart(t *testing.T) {
	ft := &fakeTransport{}
	l := NewLoop(ft, &recordingRouter{}, nil, LoopConfig{}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if ft.fetchCalls() != 0 {
		t.Errorf("fetched %d times after cancellation", ft.fetchCalls())
	}
}

func TestLoopWorkersAcknowledgeInOrder(t *testing.T) {
	var batch []Update
	for id := int64(1); id <= 8; id++ {
		batch = append(batch, Update{ID: id, ChatID: id, Text: "job"})
	}
	ft := &fakeTransport{script: []fetchResult{{updates: batch}}}

	// Earlier updates take longer so later ones finish first.
	router := &recordingRouter{delay: func(u Update) time.Duration {
		return time.Duration(9-u.ID) * 5 * time.Millisecond
	}}
	cursor := &Cursor{}
	l := NewLoop(ft, router, cursor, LoopConfig{Workers: 4}, testLogger())

	var mu sync.Mutex
	var acked []int64
	l.onAdvance = func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := ft.sentTexts()[u.ChatID]; !ok {
			t.Errorf("update %d acknowledged before its reply was sent", u.ID)
		}
		acked = append(acked, u.ID)
	}

	runUntilIdle(t, l, ft)

	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(acked) != "[1 2 3 4 5 6 7 8]" {
		t.Errorf("acknowledged %v, want ascending", acked)
	}
	if next, _ := cursor.Current(); next != 9 {
		t.Errorf("cursor = %d, want 9", next)
	}
}

func TestLoopRedeliversAfterCrash(t *testing.T) {
	backlog := []Update{
		{ID: 5, ChatID: 1, Text: "a"},
		{ID: 6, ChatID: 1, Text: "b"},
		{ID: 7, ChatID: 1, Text: "c"},
	}

	crash := errors.New("crash")
	router := &recordingRouter{hook: func(u Update) {
		if u.ID == 6 {
			panic(crash)
		}
	}}
	cursor := &Cursor{}
	ft := &fakeTransport{script: []fetchResult{{updates: backlog}}}
	l := NewLoop(ft, router, cursor, LoopConfig{}, testLogger())

	func() {
		defer func() {
			if r := recover(); r != crash {
				t.Fatalf("recovered %v, want crash", r)
			}
		}()
		l.pollOnce(context.Background())
	}()

	if next, _ := cursor.Current(); next != 6 {
		t.Fatalf("cursor after crash = %d, want 6", next)
	}

	// A restarted process starts from an unset cursor and the server still
	// holds the unconfirmed backlog.
	restarted := &recordingRouter{}
	ft2 := &fakeTransport{script: []fetchResult{{updates: backlog}}}
	runUntilIdle(t, NewLoop(ft2, restarted, &Cursor{}, LoopConfig{}, testLogger()), ft2)

	if ids := restarted.ids(); fmt.Sprint(ids) != "[5 6 7]" {
		t.Errorf("after restart routed %v, want [5 6 7]", ids)
	}
}
