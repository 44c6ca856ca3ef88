package domain

import (
	"testing"
	"time"
)

func TestCanonicalKey(t *testing.T) {
	cases := map[string]string{
		"Dune":        "dune",
		"  DUNE  ":    "dune",
		"La Casa":     "la casa",
		"":            "",
		"  ":          "",
		"Duna (2021)": "duna (2021)",
	}
	for in, want := range cases {
		if got := CanonicalKey(in); got != want {
			t.Errorf("CanonicalKey(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestMovieRecord_Matches(t *testing.T) {
	m := &MovieRecord{Key: "dune", Names: []string{"Dune", "Duna"}}

	for _, text := range []string{"dune", "DUNE", "Duna", " duna ", "Dune"} {
		if !m.Matches(text) {
			t.Errorf("Matches(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"", "dun", "dune 2", "la duna"} {
		if m.Matches(text) {
			t.Errorf("Matches(%q) = true, want false", text)
		}
	}
}

func TestMovieRecord_PrimaryNameAndAliases(t *testing.T) {
	m := &MovieRecord{Key: "dune", Names: []string{"Dune", "Duna", "Dune Part One"}}
	if got := m.PrimaryName(); got != "Dune" {
		t.Errorf("PrimaryName = %q", got)
	}
	if got := m.Aliases(); len(got) != 2 || got[0] != "Duna" {
		t.Errorf("Aliases = %v", got)
	}

	empty := &MovieRecord{Key: "dune"}
	if got := empty.PrimaryName(); got != "dune" {
		t.Errorf("PrimaryName fallback = %q, want key", got)
	}
	if got := empty.Aliases(); got != nil {
		t.Errorf("Aliases on empty = %v, want nil", got)
	}
}

func TestScheduledJob_Due(t *testing.T) {
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	j := ScheduledJob{MovieKey: "dune", Delay: 30 * time.Minute, EnqueuedAt: at}
	if got := j.Due(); !got.Equal(at.Add(30 * time.Minute)) {
		t.Errorf("Due = %v", got)
	}
}

func TestConversationState_String(t *testing.T) {
	cases := map[ConversationState]string{
		StateIdle:                       "idle",
		StateAwaitingMovieUpload:        "awaiting_movie_upload",
		StateAwaitingMovieName:          "awaiting_movie_name",
		StateAwaitingRequestedMovieLink: "awaiting_requested_movie_link",
		ConversationState(99):           "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q; want %q", s, got, want)
		}
	}
}
