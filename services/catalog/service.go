package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sourcegraph/conc"

	"anistream/models"
)

const (
	DefaultServer   = "hd-1"
	DefaultCategory = "sub"
)

// Service implements the catalog operations on top of the upstream client.
// Nothing is cached; each call is one or more fresh upstream requests.
type Service struct {
	client          *Client
	defaultServer   string
	defaultCategory string
}

// NewService wraps client. Blank defaults fall back to hd-1 / sub.
func NewService(client *Client, defaultServer, defaultCategory string) *Service {
	if strings.TrimSpace(defaultServer) == "" {
		defaultServer = DefaultServer
	}
	if strings.TrimSpace(defaultCategory) == "" {
		defaultCategory = DefaultCategory
	}
	return &Service{client: client, defaultServer: defaultServer, defaultCategory: defaultCategory}
}

// FetchHome returns the home feed untouched.
func (s *Service) FetchHome(ctx context.Context) (json.RawMessage, error) {
	data, err := s.client.get(ctx, "/home", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch home data")
	}
	return data, nil
}

// Search queries the catalog. Page values below 1 become 1.
func (s *Service) Search(ctx context.Context, query string, page int) (json.RawMessage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "q", Message: "search query is required"}
	}
	if page < 1 {
		page = 1
	}
	data, err := s.client.get(ctx, "/search", url.Values{
		"q":    {query},
		"page": {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search anime")
	}
	return data, nil
}

// GetDetails returns the anime info payload.
func (s *Service) GetDetails(ctx context.Context, animeID string) (json.RawMessage, error) {
	animeID = strings.TrimSpace(animeID)
	if err := required("id", animeID); err != nil {
		return nil, err
	}
	data, err := s.client.get(ctx, "/anime/"+url.PathEscape(animeID), nil)
	if err != nil {
		return nil, s.classify(err, "anime", animeID, "failed to fetch anime details")
	}
	if isEmpty(data) || emptyField(data, "anime") {
		return nil, &NotFoundError{Resource: "anime", ID: animeID}
	}
	return data, nil
}

// GetEpisodeList returns the episode list payload.
func (s *Service) GetEpisodeList(ctx context.Context, animeID string) (json.RawMessage, error) {
	animeID = strings.TrimSpace(animeID)
	if err := required("id", animeID); err != nil {
		return nil, err
	}
	data, err := s.client.get(ctx, "/anime/"+url.PathEscape(animeID)+"/episodes", nil)
	if err != nil {
		return nil, s.classify(err, "episodes", animeID, "failed to fetch episodes")
	}
	if isEmpty(data) {
		return nil, &NotFoundError{Resource: "episodes", ID: animeID}
	}
	return data, nil
}

// ResolveEpisodeSources fetches the sources for one (episode, server,
// category) triple. Blank server and category take the service defaults.
func (s *Service) ResolveEpisodeSources(ctx context.Context, episodeID, server, category string) (*models.EpisodeSources, error) {
	episodeID = strings.TrimSpace(episodeID)
	if err := required("id", episodeID); err != nil {
		return nil, err
	}
	server, category = s.defaults(server, category)

	data, err := s.client.get(ctx, "/episode/sources", url.Values{
		"animeEpisodeId": {episodeID},
		"server":         {server},
		"category":       {category},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch episode sources")
	}

	var out models.EpisodeSources
	if !isEmpty(data) {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "invalid episode sources payload", Err: err}
		}
	}
	return &out, nil
}

// Servers lists the servers available per category for an episode.
func (s *Service) Servers(ctx context.Context, episodeID string) (*models.EpisodeServers, error) {
	episodeID = strings.TrimSpace(episodeID)
	if err := required("id", episodeID); err != nil {
		return nil, err
	}
	data, err := s.client.get(ctx, "/episode/servers", url.Values{"animeEpisodeId": {episodeID}})
	if err != nil {
		return nil, s.classify(err, "episode", episodeID, "failed to fetch episode servers")
	}
	var out models.EpisodeServers
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "invalid episode servers payload", Err: err}
	}
	return &out, nil
}

// GetCategoryPage returns one page of a catalog category listing.
func (s *Service) GetCategoryPage(ctx context.Context, name string, page int) (json.RawMessage, error) {
	name = strings.TrimSpace(name)
	if err := required("category", name); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	data, err := s.client.get(ctx, "/category/"+url.PathEscape(name), url.Values{"page": {strconv.Itoa(page)}})
	if err != nil {
		return nil, s.classify(err, "category", name, "failed to fetch category")
	}
	return data, nil
}

// GetOverview fetches details and episodes side by side.
func (s *Service) GetOverview(ctx context.Context, animeID string) (*models.AnimeOverview, error) {
	animeID = strings.TrimSpace(animeID)
	if err := required("id", animeID); err != nil {
		return nil, err
	}

	var (
		overview    models.AnimeOverview
		detailsErr  error
		episodesErr error
		wg          conc.WaitGroup
	)
	wg.Go(func() { overview.Details, detailsErr = s.GetDetails(ctx, animeID) })
	wg.Go(func() { overview.Episodes, episodesErr = s.GetEpisodeList(ctx, animeID) })
	wg.Wait()

	if detailsErr != nil {
		return nil, detailsErr
	}
	if episodesErr != nil {
		return nil, episodesErr
	}
	return &overview, nil
}

func (s *Service) defaults(server, category string) (string, string) {
	server = strings.TrimSpace(server)
	category = strings.TrimSpace(category)
	if server == "" {
		server = s.defaultServer
	}
	if category == "" {
		category = s.defaultCategory
	}
	return server, category
}

// classify turns an upstream 404 into NotFoundError and wraps everything else.
func (s *Service) classify(err error, resource, id, msg string) error {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status == http.StatusNotFound {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return errors.Wrap(err, msg)
}

// emptyField reports whether an object payload carries key with a null or
// empty value.
func emptyField(raw json.RawMessage, key string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	v, ok := obj[key]
	return ok && isEmpty(v)
}
