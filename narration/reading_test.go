package narration

import (
	"errors"
	"testing"
	"time"
)

func TestReadingDuration(t *testing.T) {
	e := NewReading(2.5)

	got := e.Duration(Utterance{Text: "one two three four five", Rate: 1})
	if got != 2*time.Second {
		t.Errorf("expected 2s, got %s", got)
	}

	slower := e.Duration(Utterance{Text: "one two three four five", Rate: 0.5})
	if slower != 4*time.Second {
		t.Errorf("expected 4s at half rate, got %s", slower)
	}
}

func TestReadingCompletes(t *testing.T) {
	e := NewReading(100)
	done := make(chan error, 1)

	e.Speak(Utterance{Text: "short words here", Rate: 1}, func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reading did not finish")
	}
}

func TestReadingPauseResume(t *testing.T) {
	e := NewReading(50) // 5 words = 100ms
	done := make(chan error, 1)

	start := time.Now()
	e.Speak(Utterance{Text: "a b c d e", Rate: 1}, func(err error) { done <- err })

	time.Sleep(30 * time.Millisecond)
	e.Pause()
	time.Sleep(150 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("paused reading finished")
	default:
	}

	e.Resume()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
		if elapsed := time.Since(start); elapsed < 240*time.Millisecond {
			t.Errorf("pause time was not added: %s", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("resumed reading did not finish")
	}
}

func TestReadingCancel(t *testing.T) {
	e := NewReading(1)
	done := make(chan error, 1)

	e.Speak(Utterance{Text: "this would take a while", Rate: 1}, func(err error) { done <- err })
	e.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Errorf("expected ErrInterrupted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancel did not complete the utterance")
	}
}

func TestReadingThroughAdapter(t *testing.T) {
	var captions []string
	e := NewReading(200)
	e.OnSpeak = func(u Utterance) { captions = append(captions, u.Text) }

	a := New(e)
	done := make(chan error, 1)
	a.Speak("Softmax turns scores into probabilities", func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("adapter did not finish")
	}

	if len(captions) != 1 {
		t.Errorf("expected one caption, got %v", captions)
	}
}
