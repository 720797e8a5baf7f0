// internal/tools/resource-lookup/service.go
package resourcelookup

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	commonhttp "intake-orchestrator/internal/common/http"
	"intake-orchestrator/internal/models"
)

const descriptionLimit = 500

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type service struct {
	config *Config
	client *commonhttp.Client
}

func newService(cfg *Config) *service {
	return &service{
		config: cfg,
		client: commonhttp.NewClient(cfg.Timeout),
	}
}

func (s *service) search(ctx context.Context, in *Input) ([]models.ResourceProvider, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = s.config.MaxResults
	}
	if limit > s.config.MaxPerPage {
		limit = s.config.MaxPerPage
	}

	var payload directoryResponse
	if err := s.client.GetJSON(ctx, s.buildURL(in, limit), s.config.APIKey, &payload); err != nil {
		return nil, fmt.Errorf("directory search: %w", err)
	}

	providers := make([]models.ResourceProvider, 0, len(payload.Results))
	for _, r := range payload.Results {
		if len(providers) >= limit {
			break
		}
		providers = append(providers, models.ResourceProvider{
			Name:        strings.TrimSpace(r.Name),
			Description: cleanDescription(r.Description),
			Address:     r.Address,
			Phone:       r.Phone,
			Website:     r.Website,
			Eligibility: r.Eligibility,
			Hours:       r.Hours,
		})
	}
	return providers, nil
}

func (s *service) buildURL(in *Input, limit int) string {
	q := url.Values{}
	q.Set("keyword", in.Keyword)
	q.Set("limit", strconv.Itoa(limit))
	if in.ZipCode != "" {
		q.Set("zip", in.ZipCode)
	}
	if in.County != "" {
		q.Set("county", in.County)
	}
	if in.City != "" {
		q.Set("city", in.City)
	}
	return strings.TrimRight(s.config.BaseURL, "/") + "/search?" + q.Encode()
}

// cleanDescription strips the HTML markup the directory embeds and truncates
// long descriptions so the relay stays readable.
func cleanDescription(desc string) string {
	cleaned := htmlTagPattern.ReplaceAllString(desc, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if len(cleaned) > descriptionLimit {
		cleaned = cleaned[:descriptionLimit-3] + "..."
	}
	return cleaned
}
