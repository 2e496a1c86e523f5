// Package parser turns raw media filenames into structured candidates.
// Parsing is pure string work: it never touches the filesystem and never
// fails, an unrecognizable name simply yields a candidate with no signal.
package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mydehq/mediasort/internal/types"
)

const (
	minYear = 1900
)

// episodePatterns is the prioritized marker ladder. The first pattern
// that matches wins and its span is removed from the title portion.
// Single-group patterns capture an episode number only; the season
// defaults to 1 unless the directory structure says otherwise.
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bS(\d{1,2})[ ]?E(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bSeason[ ]?(\d{1,2})[ ]?Episode[ ]?(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\[(\d{1,2})x(\d{2,3})\]`),
	regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{2,3})\b`),
	regexp.MustCompile(`(?i)\bS(\d{1,2})[ ](\d{2,3})\b`),
	regexp.MustCompile(`(?i)\bE(\d{1,3})\b`),
}

// extendedEpisodePatterns extends the ladder with bare numeric forms.
// These are far too eager for general use and are only consulted when
// the source is force-typed as TV.
var extendedEpisodePatterns = append(episodePatterns[:len(episodePatterns):len(episodePatterns)],
	regexp.MustCompile(`^(\d{2})\b`),
	regexp.MustCompile(`\b(\d{2})$`),
	regexp.MustCompile(`[ ](\d{2})[ ]`),
)

// yearPatterns locate a release year token, most likely forms first.
var yearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\((\d{4})\)`),
	regexp.MustCompile(`(?:^|[ (])(\d{4})(?:[) ]|$)`),
}

var seasonDirPattern = regexp.MustCompile(`(?i)^Season[ ._-]?(\d{1,2})$`)

// separatorReplacer rewrites the common filename separators to spaces so
// the marker patterns only have to deal with one token boundary.
var separatorReplacer = strings.NewReplacer(".", " ", "_", " ", "-", " ")

var (
	bracketTag   = regexp.MustCompile(`\[[^\]]*\]`)
	parenTag     = regexp.MustCompile(`\(([^)]*)\)`)
	nonAlphaNum  = regexp.MustCompile(`[^0-9a-z ]+`)
	spaceCollaps = regexp.MustCompile(` +`)
)

// junkTokens are release/quality markers that carry no title
// information. Lifted from the tags commonly seen in the wild.
var junkTokens = map[string]struct{}{
	"480p": {}, "576p": {}, "720p": {}, "1080p": {}, "2160p": {}, "4k": {}, "uhd": {},
	"bluray": {}, "blu": {}, "ray": {}, "brrip": {}, "bdrip": {}, "remux": {},
	"webrip": {}, "webdl": {}, "web": {}, "dl": {}, "hdtv": {}, "dvdrip": {}, "dvd": {},
	"x264": {}, "x265": {}, "h264": {}, "h265": {}, "hevc": {}, "avc": {}, "av1": {}, "xvid": {}, "divx": {},
	"aac": {}, "ac3": {}, "dts": {}, "truehd": {}, "atmos": {}, "flac": {}, "opus": {},
	"hdr": {}, "hdr10": {}, "10bit": {}, "8bit": {},
	"proper": {}, "repack": {}, "internal": {}, "limited": {}, "unrated": {}, "extended": {},
	"multi": {}, "dubbed": {}, "subbed": {},
}

// Parse extracts a structured candidate from a raw file path. It never
// fails; a name with no usable signal produces a candidate whose type
// hint is Unknown and whose normalized title is the whole lowercased
// name.
func Parse(rawPath string) types.ParsedCandidate {
	return parse(rawPath, false)
}

// ParseForced behaves like Parse but additionally tries the extended,
// much more permissive episode patterns. Use it only when the operator
// has forced the source to the TV type.
func ParseForced(rawPath string) types.ParsedCandidate {
	return parse(rawPath, true)
}

func parse(rawPath string, forced bool) types.ParsedCandidate {
	base := filepath.Base(rawPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	text := spaceCollaps.ReplaceAllString(separatorReplacer.Replace(stem), " ")
	text = strings.TrimSpace(text)

	cand := types.ParsedCandidate{
		RawName:  base,
		Season:   -1,
		Episode:  -1,
		TypeHint: types.MediaTypeUnknown,
	}

	dirSeries, dirSeason := seasonDirectory(rawPath)
	ladder := episodePatterns
	if forced || dirSeason > 0 {
		ladder = extendedEpisodePatterns
	}

	titleEnd := len(text)
	for _, re := range ladder {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if len(loc) >= 6 && loc[4] >= 0 { // two capture groups: season + episode
			cand.Season = mustInt(text[loc[2]:loc[3]])
			cand.Episode = mustInt(text[loc[4]:loc[5]])
		} else {
			cand.Season = 1
			if dirSeason > 0 {
				cand.Season = dirSeason
			}
			cand.Episode = mustInt(text[loc[2]:loc[3]])
		}
		cand.TypeHint = types.MediaTypeTV
		titleEnd = loc[0]
		break
	}

	if year, start := findYear(text); year > 0 {
		cand.Year = year
		if start < titleEnd {
			titleEnd = start
		}
	}

	if cand.TypeHint == types.MediaTypeUnknown && cand.Year > 0 {
		cand.TypeHint = types.MediaTypeMovie
	}

	title := NormalizeTitle(text[:titleEnd])
	if title == "" && dirSeries != "" {
		// Layouts like "Show Name/Season 02/E05.mkv" keep the series
		// title in the directory, not the file.
		title = NormalizeTitle(separatorReplacer.Replace(dirSeries))
	}
	if title == "" {
		title = NormalizeTitle(text)
	}
	cand.NormalizedTitle = title

	return cand
}

// findYear returns the first plausible release year token and the index
// it starts at. Tokens at the very beginning of the name are rejected:
// stripping them would leave an empty title ("2001 A Space Odyssey").
func findYear(text string) (year, start int) {
	maxYear := time.Now().Year() + 1
	for _, re := range yearPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			y := mustInt(text[loc[2]:loc[3]])
			if y < minYear || y > maxYear {
				continue
			}
			if loc[0] == 0 {
				continue
			}
			return y, loc[0]
		}
	}
	return 0, -1
}

// seasonDirectory recognizes the ".../Show Name/Season 02/file" layout
// and recovers the series title and season number from the path.
func seasonDirectory(rawPath string) (series string, season int) {
	dir := filepath.Dir(rawPath)
	if dir == "." || dir == string(filepath.Separator) {
		return "", 0
	}
	m := seasonDirPattern.FindStringSubmatch(filepath.Base(dir))
	if m == nil {
		return "", 0
	}
	season = mustInt(m[1])
	parent := filepath.Dir(dir)
	if base := filepath.Base(parent); base != "." && base != string(filepath.Separator) {
		series = base
	}
	return series, season
}

// NormalizeTitle lowercases a title fragment, removes bracketed release
// tags and quality parentheticals, strips junk tokens and collapses the
// remainder to plain alphanumeric words.
func NormalizeTitle(s string) string {
	s = strings.ToLower(s)
	s = bracketTag.ReplaceAllString(s, " ")
	s = parenTag.ReplaceAllStringFunc(s, func(group string) string {
		inner := strings.Trim(group, "()")
		if looksLikeMetadata(inner) {
			return " "
		}
		return " " + inner + " "
	})
	s = nonAlphaNum.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, junk := junkTokens[w]; junk {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// looksLikeMetadata reports whether a parenthesized group is a release
// tag (resolution, codec, source) rather than part of the title.
func looksLikeMetadata(inner string) bool {
	fields := strings.Fields(strings.ToLower(inner))
	if len(fields) == 0 {
		return true
	}
	for _, f := range fields {
		if _, junk := junkTokens[f]; junk {
			return true
		}
	}
	return false
}

func mustInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return -1
	}
	return v
}
