package narration

import "testing"

func TestSelectVoice(t *testing.T) {
	prefs := DefaultPreferences()

	tests := []struct {
		name   string
		voices []Voice
		want   string
		ok     bool
	}{
		{
			name: "named voice wins in preference order",
			voices: []Voice{
				{Name: "Karen", Lang: "en-AU"},
				{Name: "Samantha", Lang: "en-US"},
			},
			want: "Samantha",
			ok:   true,
		},
		{
			name: "named voice in another language is skipped",
			voices: []Voice{
				{Name: "Samantha (Deutsch)", Lang: "de-DE"},
				{Name: "Alex", Lang: "en-US"},
			},
			want: "Alex",
			ok:   true,
		},
		{
			name: "female voice before any voice",
			voices: []Voice{
				{Name: "English (Great Britain)", Lang: "en-gb", Gender: "M"},
				{Name: "English (America)", Lang: "en-us", Gender: "F"},
			},
			want: "English (America)",
			ok:   true,
		},
		{
			name: "underscore language tags match",
			voices: []Voice{
				{Name: "Fred", Lang: "en_US"},
			},
			want: "Fred",
			ok:   true,
		},
		{
			name: "engine default when nothing matches",
			voices: []Voice{
				{Name: "Thomas", Lang: "fr-FR", Default: true},
				{Name: "Anna", Lang: "de-DE"},
			},
			want: "Thomas",
			ok:   true,
		},
		{
			name:   "no voices",
			voices: nil,
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectVoice(tt.voices, prefs)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got.Name != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got.Name)
			}
		})
	}
}

func TestLangMatches(t *testing.T) {
	if !langMatches("en-GB", "en") {
		t.Error("en-GB should match en")
	}
	if langMatches("eng", "en") {
		t.Error("eng should not match en")
	}
	if !langMatches("anything", "") {
		t.Error("empty preference matches every language")
	}
}
