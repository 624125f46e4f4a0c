// Package headhunter pulls vacancies from the hh.ru API and turns them into
// raw postings.
package headhunter

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/hh-indexer/internal/logger"
	"github.com/spigell/hh-indexer/internal/posting"
)

const (
	apiURL    = "https://api.hh.ru"
	siteURL   = "hh.ru"
	userAgent = "spigell/hh-indexer (spigelly@gmail.com)"
	// Max value for search per page.
	perPage = "100"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. The token is optional: vacancy search works
// anonymously with lower rate limits.
func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	return c.search(ctx, params)
}

// Source adapts a vacancy search to the ingest pipeline.
type Source struct {
	Client *Client
	Params *SearchParams
	// Detailed fetches every vacancy on its own to get the full description
	// instead of the search snippet.
	Detailed bool
	Now      func() time.Time
}

func (s *Source) Name() string { return "headhunter" }

func (s *Source) Fetch(ctx context.Context) ([]posting.RawPosting, error) {
	params := s.Params
	if params == nil {
		params = &SearchParams{}
	}

	vacancies, err := s.Client.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	if s.Detailed {
		log := logger.WithFields(s.Client.logger)
		for i, v := range vacancies.Items {
			full, err := s.Client.GetVacancy(ctx, v.ID)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.Debug("fetching detailed vacancy failed", zap.String("vacancy_id", v.ID), zap.Error(err))
				continue
			}
			vacancies.Items[i] = full
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	return vacancies.RawPostings(now().UTC()), nil
}
