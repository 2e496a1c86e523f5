package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mydehq/mediasort/internal/types"
)

const (
	tvmazeName    = "tvmaze"
	tvmazeBaseURL = "https://api.tvmaze.com"
)

// TVMaze searches api.tvmaze.com for TV series. The service needs no API
// key. Its singlesearch endpoint returns the single best series for a
// query with all episodes embedded, so candidates come back with the
// requested episode already confirmed when it exists.
type TVMaze struct {
	base   string
	client *http.Client
}

func NewTVMaze(baseURL string) *TVMaze {
	if baseURL == "" {
		baseURL = tvmazeBaseURL
	}
	return &TVMaze{base: baseURL, client: newHTTPClient()}
}

func (t *TVMaze) Name() string { return tvmazeName }

func (t *TVMaze) Serves(mediaType types.MediaType) bool {
	return mediaType == types.MediaTypeTV
}

// Configured is always true; the TVMaze API needs no key.
func (t *TVMaze) Configured() bool { return true }

type tvmazeShow struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
	Embedded  struct {
		Episodes []tvmazeEpisode `json:"episodes"`
	} `json:"_embedded"`
	Links struct {
		Self struct {
			Href string `json:"href"`
		} `json:"self"`
	} `json:"_links"`
}

type tvmazeEpisode struct {
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
	AirDate string `json:"airdate"`
}

// Search resolves a series via singlesearch and looks the requested
// episode up in the embedded episode list. A 404 from singlesearch means
// no show matched and yields an empty candidate list.
func (t *TVMaze) Search(ctx context.Context, term string, mediaType types.MediaType, season, episode int) ([]types.RawCandidate, error) {
	if mediaType != types.MediaTypeTV {
		return nil, nil
	}

	u := fmt.Sprintf("%s/singlesearch/shows?q=%s&embed=episodes", t.base, url.QueryEscape(term))
	var show tvmazeShow
	found, err := getJSON(ctx, t.client, tvmazeName, u, &show, true)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	cand := types.RawCandidate{
		Provider: tvmazeName,
		ID:       fmt.Sprintf("%d", show.ID),
		Title:    show.Name,
		Year:     yearFromDate(show.Premiered),
		Type:     types.MediaTypeTV,
	}

	if season >= 0 && episode >= 0 {
		info, err := t.findEpisode(ctx, &show, season, episode)
		if err != nil {
			return nil, err
		}
		cand.Episode = info
	}

	return []types.RawCandidate{cand}, nil
}

// findEpisode locates the requested episode. The embedded list misses
// specials, so on a miss the full episode list (specials included) is
// fetched; as a last resort the episode is picked by air-date order
// within the season.
func (t *TVMaze) findEpisode(ctx context.Context, show *tvmazeShow, season, episode int) (*types.EpisodeInfo, error) {
	if ep := matchEpisode(show.Embedded.Episodes, season, episode); ep != nil {
		return ep, nil
	}

	if show.Links.Self.Href == "" {
		return nil, nil
	}

	var all []tvmazeEpisode
	u := show.Links.Self.Href + "/episodes?specials=1"
	if _, err := getJSON(ctx, t.client, tvmazeName, u, &all, false); err != nil {
		return nil, err
	}
	if ep := matchEpisode(all, season, episode); ep != nil {
		return ep, nil
	}

	// Air-date ordering fallback: some specials carry no episode number
	// at all, so index into the season by position.
	var inSeason []tvmazeEpisode
	for _, e := range all {
		if e.Season == season {
			inSeason = append(inSeason, e)
		}
	}
	sort.SliceStable(inSeason, func(i, j int) bool { return inSeason[i].AirDate < inSeason[j].AirDate })
	if episode >= 1 && episode <= len(inSeason) {
		e := inSeason[episode-1]
		return episodeInfo(e, season, episode), nil
	}

	return nil, nil
}

func matchEpisode(episodes []tvmazeEpisode, season, episode int) *types.EpisodeInfo {
	for _, e := range episodes {
		if e.Season == season && e.Number == episode {
			return episodeInfo(e, e.Season, e.Number)
		}
	}
	return nil
}

func episodeInfo(e tvmazeEpisode, season, number int) *types.EpisodeInfo {
	// A slash is the only invalid filename char on *NIX; scrub it here
	// so every consumer gets a safe title.
	title := strings.ReplaceAll(e.Name, "/", "-")
	return &types.EpisodeInfo{
		Title:   title,
		Season:  season,
		Number:  number,
		AirDate: e.AirDate,
	}
}
