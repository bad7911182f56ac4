package lyrics

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// minSongLen is the shortest song name left after stripping remix metadata.
const minSongLen = 3

var lower = cases.Lower(language.Und)

func isDash(r rune) bool { return r == '-' }

// endOfWord returns the index of the first non-alphanumeric rune at or after idx.
func endOfWord(s string, idx int) int {
	if idx > len(s) {
		return idx
	}
	if i := strings.IndexFunc(s[idx:], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}); i >= 0 {
		return idx + i
	}
	return len(s)
}

// trimFillerBefore moves idx left past trailing spaces and dashes.
func trimFillerBefore(s string, idx int) int {
	if idx > len(s) {
		return idx
	}
	if i := strings.LastIndexFunc(s[:idx], func(r rune) bool {
		return !isDash(r) && !unicode.IsSpace(r)
	}); i >= 0 {
		_, size := utf8.DecodeRuneInString(s[i:])
		return i + size
	}
	return idx
}

func allNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// ImproveQuery lowercases a track query and strips remaster and remix metadata,
// which make Genius return lyrics of unrelated songs.
//
// "{song} 2011 Remastered {artist}" becomes "{song} {artist}", and
// "{song} - xxx Remix {artist}" becomes "{song} {artist}" when at least three
// characters of the song name remain.
func ImproveQuery(query string) string {
	q := lower.String(query)

	if i := strings.Index(q, "remaster"); i >= 0 {
		end := endOfWord(q, i+len("remaster"))

		start := max(i-1, 0)
		prev := q[:max(i-2, 0)]
		prevWordEnd := max(strings.LastIndex(prev, " "), 0)
		if lo, hi := prevWordEnd+1, max(i-1, 0); lo <= hi && allNumeric(q[lo:hi]) {
			start = prevWordEnd
		}
		start = trimFillerBefore(q, start)
		q = q[:start] + q[end:]
	}

	if i := strings.Index(q, "remix"); i >= 0 {
		end := endOfWord(q, i+len("remix"))
		if dash := strings.LastIndexFunc(q, isDash); dash >= minSongLen {
			if start := trimFillerBefore(q, dash); start < end {
				q = q[:start] + q[end:]
			}
		}
	}
	return q
}

// ProcessLyric makes the spacing between sections consistent: every section
// header ("[Chorus]") is preceded by exactly one blank line.
func ProcessLyric(lyric string) string {
	lyric = strings.ReplaceAll(lyric, "\n\n[", "\n[")
	return strings.ReplaceAll(lyric, "\n[", "\n\n[")
}
