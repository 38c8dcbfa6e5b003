package matcher

import (
	"testing"

	"reeler/internal/domain"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello world"},
		{"Artist - 01 Hello.World [FLAC]", "artist 01 hello world"},
		{"Some_Track-Name (WEB) 320", "some track name"},
		{"", ""},
		{"[FLAC] [320]", ""},
		{"Don't Stop", "don t stop"},
	}

	for _, c := range cases {
		got := Normalize(c.in)
		if got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFindByTitleLongerMatchWins(t *testing.T) {
	tracks := []domain.Track{
		{ID: 1, Title: "Hello World"},
		{ID: 2, Title: "Hello"},
	}

	got := FindByTitle("Artist - 01 Hello World [FLAC]", tracks)
	if got == nil {
		t.Fatal("Expected a match")
	}
	if got.Title != "Hello World" {
		t.Errorf("Expected longer match to win, got %q", got.Title)
	}
}

func TestFindByTitleNoMatch(t *testing.T) {
	tracks := []domain.Track{
		{ID: 1, Title: "Hello World"},
	}

	got := FindByTitle("Totally Unrelated File", tracks)
	if got != nil {
		t.Errorf("Expected no match, got %q", got.Title)
	}
}

func TestFindByTitleEarlierPositionWins(t *testing.T) {
	tracks := []domain.Track{
		{ID: 1, Title: "World Tour"},
		{ID: 2, Title: "Hello"},
	}

	// "hello" occurs before "world tour" in the release title.
	got := FindByTitle("Hello World Tour Bootleg", tracks)
	if got == nil {
		t.Fatal("Expected a match")
	}
	if got.ID != 2 {
		t.Errorf("Expected earlier position to win, got track %d (%q)", got.ID, got.Title)
	}
}

func TestFindByTitleEmptyCandidates(t *testing.T) {
	if got := FindByTitle("Anything", nil); got != nil {
		t.Error("Expected nil for empty candidate set")
	}

	// Candidates whose normalized title is empty never qualify.
	tracks := []domain.Track{
		{ID: 1, Title: "[FLAC]"},
		{ID: 2, Title: ""},
	}
	if got := FindByTitle("Anything FLAC", tracks); got != nil {
		t.Errorf("Expected nil for noise-only candidates, got track %d", got.ID)
	}
}

func TestFindByTitleEmptyRelease(t *testing.T) {
	tracks := []domain.Track{{ID: 1, Title: "Hello"}}
	if got := FindByTitle("", tracks); got != nil {
		t.Error("Expected nil for empty release title")
	}
	if got := FindByTitle("320 FLAC", tracks); got != nil {
		t.Error("Expected nil for noise-only release title")
	}
}

func TestFindByTitleNoiseTokensIgnored(t *testing.T) {
	tracks := []domain.Track{
		{ID: 1, Title: "Midnight Run (FLAC)"},
	}

	got := FindByTitle("VA - Midnight Run - WEB 320", tracks)
	if got == nil {
		t.Fatal("Expected a match once noise tokens are stripped from both sides")
	}
	if got.ID != 1 {
		t.Errorf("Expected track 1, got %d", got.ID)
	}
}

func TestFindByTitleMultiByteTitles(t *testing.T) {
	tracks := []domain.Track{
		{ID: 1, Title: "Señorita"},
		{ID: 2, Title: "Señorita (Extended Café Mix)"},
	}

	// Both match at the same offset; the longer title, counted in runes,
	// must win.
	got := FindByTitle("Artíst - Señorita Extended Café Mix [FLAC]", tracks)
	if got == nil {
		t.Fatal("Expected a match")
	}
	if got.ID != 2 {
		t.Errorf("Expected the longer multi-byte title to win, got %d (%q)", got.ID, got.Title)
	}
}

func TestFindByTitleStableOnEqualRank(t *testing.T) {
	// Same position, same normalized length: the first candidate wins.
	tracks := []domain.Track{
		{ID: 1, Title: "Echoes"},
		{ID: 2, Title: "ECHOES"},
	}

	got := FindByTitle("Echoes (Live)", tracks)
	if got == nil {
		t.Fatal("Expected a match")
	}
	if got.ID != 1 {
		t.Errorf("Expected first candidate on equal rank, got %d", got.ID)
	}
}
