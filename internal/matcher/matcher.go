// Package matcher maps noisy release titles onto library tracks.
//
// Release titles are free text from indexers and download clients. They carry
// quality tags, group names and numbering around the actual track title, so
// matching is substring containment over normalized text, not equality.
package matcher

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"reeler/internal/domain"
)

// noiseTokens are scene-release tokens stripped during normalization. They
// describe the encode, not the music, and would defeat containment checks.
var noiseTokens = map[string]struct{}{
	"flac":     {},
	"mp3":      {},
	"m4a":      {},
	"aac":      {},
	"ogg":      {},
	"320":      {},
	"256":      {},
	"192":      {},
	"v0":       {},
	"v2":       {},
	"cbr":      {},
	"vbr":      {},
	"web":      {},
	"webdl":    {},
	"cd":       {},
	"vinyl":    {},
	"16bit":    {},
	"24bit":    {},
	"lossless": {},
	"proper":   {},
	"repack":   {},
	"scene":    {},
}

type candidate struct {
	track    domain.Track
	position int
	length   int
}

// FindByTitle returns the library track whose normalized title best matches
// the release title, or nil when no candidate qualifies.
//
// A candidate qualifies when its non-empty normalized title occurs inside the
// normalized release title. Qualifying candidates rank by first match
// position ascending, ties broken by normalized title length descending so
// the most specific title wins at the same offset.
func FindByTitle(releaseTitle string, tracks []domain.Track) *domain.Track {
	normRelease := Normalize(releaseTitle)
	if normRelease == "" {
		return nil
	}

	var candidates []candidate
	for _, track := range tracks {
		normTitle := Normalize(track.Title)
		if normTitle == "" {
			continue
		}
		position := strings.Index(normRelease, normTitle)
		if position < 0 {
			continue
		}
		candidates = append(candidates, candidate{
			track:    track,
			position: position,
			length:   utf8.RuneCountInString(normTitle),
		})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].position != candidates[j].position {
			return candidates[i].position < candidates[j].position
		}
		return candidates[i].length > candidates[j].length
	})

	best := candidates[0].track
	return &best
}

// Normalize case-folds a title, collapses separator punctuation to spaces and
// strips scene-release noise tokens. Used on both sides of a match so
// containment compares like with like.
func Normalize(title string) string {
	lowered := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, noise := noiseTokens[f]; noise {
			continue
		}
		kept = append(kept, f)
	}

	return strings.Join(kept, " ")
}
