package narration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/librescoot/stepseq"
)

// fakeEngine records calls and lets the test finish utterances
type fakeEngine struct {
	mu        sync.Mutex
	voices    []Voice
	spoken    []Utterance
	dones     []func(error)
	cancels   int
	pauses    int
	resumes   int
	autoEnd   bool
	available bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{available: true}
}

func (e *fakeEngine) Available() bool { return e.available }

func (e *fakeEngine) Voices() []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voices
}

func (e *fakeEngine) Speak(u Utterance, done func(error)) {
	e.mu.Lock()
	e.spoken = append(e.spoken, u)
	e.dones = append(e.dones, done)
	auto := e.autoEnd
	e.mu.Unlock()

	if auto {
		go done(nil)
	}
}

func (e *fakeEngine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels++
}

func (e *fakeEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauses++
}

func (e *fakeEngine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resumes++
}

func (e *fakeEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.spoken)
}

func (e *fakeEngine) finish(i int, err error) {
	e.mu.Lock()
	done := e.dones[i]
	e.mu.Unlock()
	done(err)
}

// results collects done callbacks
type results struct {
	mu   sync.Mutex
	errs map[string][]error
}

func (r *results) done(name string) func(error) {
	return func(err error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.errs == nil {
			r.errs = make(map[string][]error)
		}
		r.errs[name] = append(r.errs[name], err)
	}
}

func (r *results) get(name string) []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs[name]...)
}

func TestSpeakCompletes(t *testing.T) {
	e := newFakeEngine()
	a := New(e)
	res := &results{}

	a.Speak("Tokens are small pieces of text", res.done("one"))

	if !a.IsSpeaking() {
		t.Fatal("adapter should be speaking")
	}

	u := e.spoken[0]
	if u.Rate != 0.9 || u.Pitch != 1.1 || u.Volume != 1.0 {
		t.Errorf("unexpected speech settings %+v", u)
	}

	e.finish(0, nil)

	if a.IsSpeaking() {
		t.Error("adapter should be idle after the utterance ended")
	}
	if got := res.get("one"); len(got) != 1 || got[0] != nil {
		t.Errorf("expected one nil completion, got %v", got)
	}
}

func TestSpeakPreemptsPrevious(t *testing.T) {
	e := newFakeEngine()
	a := New(e)
	res := &results{}

	a.Speak("first", res.done("first"))
	a.Speak("second", res.done("second"))

	if got := res.get("first"); len(got) != 1 || !errors.Is(got[0], ErrInterrupted) {
		t.Fatalf("first utterance should be interrupted, got %v", got)
	}
	if e.cancels != 1 {
		t.Errorf("expected engine cancel, got %d", e.cancels)
	}

	// Late engine completion of the preempted utterance is ignored
	e.finish(0, errors.New("canceled"))
	if got := res.get("first"); len(got) != 1 {
		t.Errorf("first utterance completed twice: %v", got)
	}
	if !a.IsSpeaking() {
		t.Error("second utterance should still be speaking")
	}

	e.finish(1, nil)
	if got := res.get("second"); len(got) != 1 || got[0] != nil {
		t.Errorf("expected second to end normally, got %v", got)
	}
}

func TestStopWhenIdle(t *testing.T) {
	e := newFakeEngine()
	a := New(e)

	a.Stop()
	a.Stop()

	if e.cancels != 0 {
		t.Errorf("idle stop should not reach the engine, got %d cancels", e.cancels)
	}
}

func TestStopInterrupts(t *testing.T) {
	e := newFakeEngine()
	a := New(e)
	res := &results{}

	a.Speak("story", res.done("story"))
	a.Stop()

	if got := res.get("story"); len(got) != 1 || !errors.Is(got[0], ErrInterrupted) {
		t.Errorf("expected interrupted completion, got %v", got)
	}
	if a.IsSpeaking() || a.IsPaused() {
		t.Error("adapter should be idle after stop")
	}
}

func TestPauseResume(t *testing.T) {
	e := newFakeEngine()
	a := New(e)

	a.Pause()
	if e.pauses != 0 {
		t.Fatal("pause while idle should be a no-op")
	}

	a.Speak("hello", nil)
	a.Pause()
	a.Pause()

	if !a.IsPaused() {
		t.Fatal("adapter should be paused")
	}
	if e.pauses != 1 {
		t.Errorf("expected one engine pause, got %d", e.pauses)
	}

	a.TogglePause()
	if a.IsPaused() || e.resumes != 1 {
		t.Errorf("toggle should resume, paused=%v resumes=%d", a.IsPaused(), e.resumes)
	}
}

func TestUnavailableEngine(t *testing.T) {
	a := New(nil)
	res := &results{}

	a.Speak("nobody hears this", res.done("x"))

	if got := res.get("x"); len(got) != 1 || !errors.Is(got[0], ErrUnavailable) {
		t.Errorf("expected unavailable completion, got %v", got)
	}
	if a.IsSpeaking() {
		t.Error("unavailable adapter should never be speaking")
	}
}

func TestEmptyTextCompletesImmediately(t *testing.T) {
	e := newFakeEngine()
	a := New(e)
	res := &results{}

	a.Speak("   ", res.done("blank"))

	if got := res.get("blank"); len(got) != 1 || got[0] != nil {
		t.Errorf("expected immediate completion, got %v", got)
	}
	if e.count() != 0 {
		t.Error("blank text should not reach the engine")
	}
}

func TestVoiceChosenFromEngine(t *testing.T) {
	e := newFakeEngine()
	e.voices = []Voice{
		{Name: "Daniel", Lang: "en-GB"},
		{Name: "Samantha", Lang: "en-US"},
	}
	a := New(e)

	a.Speak("hi", nil)

	if got := e.spoken[0].Voice.Name; got != "Samantha" {
		t.Errorf("expected Samantha, got %q", got)
	}
}

func TestSequencersShareAdapter(t *testing.T) {
	e := newFakeEngine()
	a := New(e)

	var mu sync.Mutex
	var order []string
	mark := func(name string) stepseq.Effect {
		return func(*stepseq.Context) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	first := stepseq.New(context.Background(), stepseq.MustSequence(
		stepseq.NewStep(stepseq.Narrate("first lesson"), stepseq.WithEffect(mark("first"))),
	), stepseq.WithNarrator(a))
	defer first.Close()

	second := stepseq.New(context.Background(), stepseq.MustSequence(
		stepseq.NewStep(stepseq.Narrate("second lesson"), stepseq.WithEffect(mark("second"))),
	), stepseq.WithNarrator(a))
	defer second.Close()

	first.Start()
	second.Start() // preempts the first narration

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// The preempted narration counts as finished
	if snap, err := first.Wait(ctx); err != nil || snap.Status != stepseq.StatusComplete {
		t.Fatalf("first sequencer should complete after preemption: %+v %v", snap, err)
	}
	if second.Status() != stepseq.StatusRunning {
		t.Fatalf("second sequencer should still be narrating, got %s", second.Status())
	}

	e.finish(1, nil)
	if snap, err := second.Wait(ctx); err != nil || snap.Status != stepseq.StatusComplete {
		t.Fatalf("second sequencer should complete: %+v %v", snap, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected effect order %v", order)
	}
}

func TestSequencerWithUnavailableNarration(t *testing.T) {
	s := stepseq.New(context.Background(), stepseq.MustSequence(
		stepseq.NewStep(stepseq.Narrate("one")),
		stepseq.NewStep(stepseq.After(5*time.Millisecond)),
		stepseq.NewStep(stepseq.Narrate("two")),
		stepseq.NewStep(stepseq.Narrate("three")),
	), stepseq.WithNarrator(New(Unavailable{})))
	defer s.Close()

	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	snap, err := s.Wait(ctx)
	if err != nil {
		t.Fatalf("narration fallback hung: %v", err)
	}
	if snap.Status != stepseq.StatusComplete || snap.Index != 3 {
		t.Errorf("expected complete at 3, got %+v", snap)
	}
}
