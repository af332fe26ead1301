package narration

import "strings"

// Preferences control voice selection and utterance settings
type Preferences struct {
	Voices []string // Name fragments in order of preference
	Lang   string   // Language tag prefix, e.g. "en"
	Rate   float64
	Pitch  float64
	Volume float64
}

// DefaultPreferences favours a friendly English teaching voice, slightly slower
// and higher than normal.
func DefaultPreferences() Preferences {
	return Preferences{
		Voices: []string{
			"Google UK English Female",
			"Google US English",
			"Samantha",
			"Victoria",
			"Karen",
			"Moira",
			"Tessa",
			"Fiona",
			"Microsoft Zira",
			"Microsoft Hazel",
		},
		Lang:   "en",
		Rate:   0.9,
		Pitch:  1.1,
		Volume: 1.0,
	}
}

// SelectVoice picks a voice by preference: a named voice in the wanted language,
// then a female voice in that language, then any voice in that language, then the
// engine's default voice. ok is false when the engine default should be used.
func SelectVoice(voices []Voice, prefs Preferences) (v Voice, ok bool) {
	for _, name := range prefs.Voices {
		for _, v := range voices {
			if strings.Contains(v.Name, name) && langMatches(v.Lang, prefs.Lang) {
				return v, true
			}
		}
	}

	for _, v := range voices {
		if langMatches(v.Lang, prefs.Lang) && looksFemale(v) {
			return v, true
		}
	}

	for _, v := range voices {
		if langMatches(v.Lang, prefs.Lang) {
			return v, true
		}
	}

	for _, v := range voices {
		if v.Default {
			return v, true
		}
	}

	return Voice{}, false
}

func looksFemale(v Voice) bool {
	return v.Gender == "F" || strings.Contains(strings.ToLower(v.Name), "female")
}

// langMatches reports whether tag is want or a regional variant of it
func langMatches(tag, want string) bool {
	if want == "" {
		return true
	}
	tag = strings.ToLower(strings.ReplaceAll(tag, "_", "-"))
	want = strings.ToLower(strings.ReplaceAll(want, "_", "-"))
	return tag == want || strings.HasPrefix(tag, want+"-")
}
