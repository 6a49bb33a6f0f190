package poller

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/altmanhellen/homework-bot/internal/practicum"
	"github.com/altmanhellen/homework-bot/internal/storage"
	"github.com/altmanhellen/homework-bot/internal/transport"
	logx "github.com/altmanhellen/homework-bot/pkg/logx"
)

type apiResult struct {
	payload string
	err     error
}

// fakeAPI replays a scripted sequence of results; the last one repeats.
type fakeAPI struct {
	mu      sync.Mutex
	script  []apiResult
	cursors []int64
}

func (f *fakeAPI) HomeworkStatuses(ctx context.Context, from int64) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursors = append(f.cursors, from)
	i := len(f.cursors) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	r := f.script[i]
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.payload), nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail error
}

func (f *fakeSender) SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return transport.MessageRef{}, f.fail
	}
	f.sent = append(f.sent, text)
	return transport.MessageRef{ChatID: to.ChatID, MessageID: len(f.sent)}, nil
}

func (f *fakeSender) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeStore struct {
	mu      sync.Mutex
	entries []storage.DeliveryEntry
}

func (f *fakeStore) AppendDelivery(ctx context.Context, e storage.DeliveryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeStore) Close() error { return nil }

func newTestService(t *testing.T, api APIClient, sender transport.Sender, store storage.Store) *Service {
	t.Helper()
	sched, err := ParseSchedule("1ms")
	if err != nil {
		t.Fatalf("ParseSchedule error: %v", err)
	}
	s := New(Config{ChatID: 42, Schedule: sched, StartFrom: 500}, api, sender, store, logx.Nop())
	s.cursor = 500
	return s
}

func TestIterationDeliversStatusAndAdvancesCursor(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{{payload: `{"homeworks": [{"homework_name":"hw1","status":"approved"}], "current_date": 1000}`}}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	s.runOnce(context.Background())

	want := "Изменился статус проверки работы \"hw1\". Работа проверена: ревьюеру всё понравилось. Ура!"
	got := sender.texts()
	if len(got) != 1 || got[0] != want {
		t.Fatalf("sent = %q, want exactly [%q]", got, want)
	}
	if s.cursor != 1000 {
		t.Fatalf("cursor = %d, want 1000", s.cursor)
	}
	if api.cursors[0] != 500 {
		t.Fatalf("polled from_date = %d, want 500", api.cursors[0])
	}
}

func TestIterationEmptyHomeworksKeepsCursor(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{{payload: `{"homeworks": []}`}}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	s.runOnce(context.Background())
	s.runOnce(context.Background())

	if got := sender.texts(); len(got) != 0 {
		t.Fatalf("sent = %q, want none", got)
	}
	if s.cursor != 500 {
		t.Fatalf("cursor = %d, want unchanged 500", s.cursor)
	}
}

func TestIterationServerErrorIsReported(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{{err: &practicum.APIError{Kind: practicum.KindServer, StatusCode: 503}}}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	s.runOnce(context.Background())

	got := sender.texts()
	if len(got) != 1 {
		t.Fatalf("sent %d messages, want 1", len(got))
	}
	if !strings.HasPrefix(got[0], failurePrefix) {
		t.Fatalf("failure message %q lacks prefix %q", got[0], failurePrefix)
	}
	if !strings.Contains(got[0], "ошибка сервера") {
		t.Fatalf("failure message %q lacks server-error classification", got[0])
	}
	if s.cursor != 500 {
		t.Fatalf("cursor = %d, want unchanged 500", s.cursor)
	}
}

func TestConsecutiveIdenticalFailuresNotifyOnce(t *testing.T) {
	t.Parallel()
	serverErr := &practicum.APIError{Kind: practicum.KindServer, StatusCode: 503}
	api := &fakeAPI{script: []apiResult{{err: serverErr}, {err: serverErr}, {err: &practicum.APIError{Kind: practicum.KindClient, StatusCode: 401}}}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	s.runOnce(context.Background())
	s.runOnce(context.Background())
	s.runOnce(context.Background())

	got := sender.texts()
	if len(got) != 2 {
		t.Fatalf("sent = %q, want two messages (duplicate suppressed, new failure sent)", got)
	}
	if !strings.Contains(got[1], "ошибка на стороне клиента") {
		t.Fatalf("second message %q should carry the client-error classification", got[1])
	}
}

func TestIterationMissingHomeworksKeyIsIterationFailure(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{{payload: `{"no_homeworks_key": true}`}}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	s.runOnce(context.Background())
	s.runOnce(context.Background())

	got := sender.texts()
	if len(got) != 1 {
		t.Fatalf("sent = %q, want the validation failure reported exactly once", got)
	}
	if !strings.Contains(got[0], `"homeworks"`) {
		t.Fatalf("failure message %q should name the missing key", got[0])
	}
}

func TestTranslationFailureAbortsRemainingRecords(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{{payload: `{
		"homeworks": [
			{"homework_name":"hw1","status":"approved"},
			{"homework_name":"hw2","status":"archived"},
			{"homework_name":"hw3","status":"approved"}
		],
		"current_date": 2000
	}`}}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	s.runOnce(context.Background())

	got := sender.texts()
	if len(got) != 2 {
		t.Fatalf("sent = %q, want hw1 status plus one failure", got)
	}
	if !strings.Contains(got[0], "hw1") {
		t.Fatalf("first message %q should be hw1's status change", got[0])
	}
	if !strings.HasPrefix(got[1], failurePrefix) || !strings.Contains(got[1], "archived") {
		t.Fatalf("second message %q should report the unknown status", got[1])
	}
	for _, text := range got {
		if strings.Contains(text, "hw3") {
			t.Fatalf("hw3 must not be translated after the failure: %q", text)
		}
	}
	if s.cursor != 500 {
		t.Fatalf("cursor = %d, failed iteration must not advance it", s.cursor)
	}
}

func TestDeliveryFailureIsDropped(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{{payload: `{"homeworks": [{"homework_name":"hw1","status":"approved"}], "current_date": 1000}`}}}
	sender := &fakeSender{fail: errors.New("telegram: 502")}
	store := &fakeStore{}
	s := newTestService(t, api, sender, store)
	s.iter = 1

	s.runOnce(context.Background())

	// The send failed, the iteration still completes and advances the cursor.
	if s.cursor != 1000 {
		t.Fatalf("cursor = %d, want 1000", s.cursor)
	}
	if len(store.entries) != 1 {
		t.Fatalf("journal has %d entries, want 1", len(store.entries))
	}
	e := store.entries[0]
	if e.Kind != storage.DeliveryStatus || e.Error != "telegram: 502" || e.Iteration != 1 {
		t.Fatalf("unexpected journal entry: %+v", e)
	}
}

func TestJournalRecordsDeliveries(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{
		{payload: `{"homeworks": [{"homework_name":"hw1","status":"reviewing"}], "current_date": 1500}`},
		{err: &practicum.APIError{Kind: practicum.KindServer, StatusCode: 500}},
	}}
	sender := &fakeSender{}
	store := &fakeStore{}
	s := newTestService(t, api, sender, store)

	s.iter = 1
	s.runOnce(context.Background())
	s.iter = 2
	s.runOnce(context.Background())

	if len(store.entries) != 2 {
		t.Fatalf("journal has %d entries, want 2", len(store.entries))
	}
	if store.entries[0].Kind != storage.DeliveryStatus || store.entries[0].Iteration != 1 {
		t.Fatalf("unexpected first entry: %+v", store.entries[0])
	}
	if store.entries[1].Kind != storage.DeliveryFailure || store.entries[1].Iteration != 2 {
		t.Fatalf("unexpected second entry: %+v", store.entries[1])
	}
	if store.entries[1].ChatID != 42 {
		t.Fatalf("entry chat id = %d, want 42", store.entries[1].ChatID)
	}
}

func TestRunLoopsUntilCancelled(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{script: []apiResult{
		{payload: `{"homeworks": [], "current_date": 1000}`},
		{payload: `{"homeworks": []}`},
	}}
	sender := &fakeSender{}
	s := newTestService(t, api, sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for api.calls() < 3 {
		select {
		case <-deadline:
			t.Fatal("loop did not keep polling")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	// Second and later polls reuse the server-advanced cursor.
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.cursors[1] != 1000 {
		t.Fatalf("second poll from_date = %d, want 1000", api.cursors[1])
	}
}
