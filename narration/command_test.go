package narration

import (
	"errors"
	"os/exec"
	"reflect"
	"testing"
	"time"
)

func requireSleep(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep binary not available")
	}
}

func TestCommandCompletes(t *testing.T) {
	requireSleep(t)

	c := NewCommand("sleep", nil)
	c.Args = func(Utterance) []string { return []string{"0.02"} }

	done := make(chan error, 1)
	c.Speak(Utterance{Text: "hello"}, func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command did not finish")
	}
}

func TestCommandCancel(t *testing.T) {
	requireSleep(t)

	c := NewCommand("sleep", nil)
	c.Args = func(Utterance) []string { return []string{"10"} }

	done := make(chan error, 1)
	c.Speak(Utterance{Text: "hello"}, func(err error) { done <- err })
	c.Pause()
	c.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrInterrupted) {
			t.Errorf("expected ErrInterrupted, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not stop the process")
	}
}

func TestCommandMissingBinary(t *testing.T) {
	c := NewCommand("definitely-not-a-synthesizer", nil)
	if c.Available() {
		t.Fatal("missing binary should be unavailable")
	}

	done := make(chan error, 1)
	c.Speak(Utterance{Text: "hello"}, func(err error) { done <- err })

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected start error")
		}
	case <-time.After(time.Second):
		t.Fatal("no completion for failed start")
	}
}

func TestEspeakArgs(t *testing.T) {
	got := espeakArgs(Utterance{
		Voice:  Voice{Name: "English (America)", Lang: "en-us"},
		Rate:   0.9,
		Pitch:  1.1,
		Volume: 1.0,
	})
	want := []string{"--stdin", "-v", "en-us", "-s", "157", "-p", "55", "-a", "100"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseVoices(t *testing.T) {
	out := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 2  en-gb           --/M      English_(Great_Britain) gmw/en        (en 2)
 5  en-us           --/F      English_(America)  gmw/en-US            (en 3)
 5  xx              --/-      Unknown            misc/xx
`)

	voices := parseVoices(out)
	if len(voices) != 4 {
		t.Fatalf("expected 4 voices, got %d", len(voices))
	}
	if voices[1].Name != "English (Great Britain)" || voices[1].Lang != "en-gb" {
		t.Errorf("unexpected voice %+v", voices[1])
	}
	if voices[2].Gender != "F" {
		t.Errorf("expected female voice, got %+v", voices[2])
	}
	if voices[3].Gender != "" {
		t.Errorf("unknown gender should be empty, got %q", voices[3].Gender)
	}

	v, ok := SelectVoice(voices, DefaultPreferences())
	if !ok || v.Lang != "en-us" {
		t.Errorf("expected the female English voice, got %+v", v)
	}
}
