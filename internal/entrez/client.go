// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entrez is the client for the NCBI E-utilities API: esearch for
// PMID retrieval, esummary for titles, efetch for abstracts, and elink for
// cited-in counts. Every call is rate limited; NCBI allows 3 requests per
// second without an API key and 10 with one.
package entrez

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/genescout/internal/httputil"
)

const (
	// DefaultBaseURL is the base URL for the NCBI E-utilities API.
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// citedInLinkName selects PMC articles citing the queried PMID.
	citedInLinkName = "pubmed_pmc_refs"

	maxResponseBytes = 10 << 20
)

// Config holds the configuration for the E-utilities client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL if empty.
	BaseURL string

	// Email identifies the caller per NCBI usage policy. Required.
	Email string

	// Tool is the client name sent alongside Email.
	Tool string

	// APIKey raises the rate ceiling from 3 to 10 requests per second.
	APIKey string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RateLimit is the request-per-second ceiling; 0 selects 3 without an
	// API key and 10 with one.
	RateLimit float64

	// UserAgent is sent with every request.
	UserAgent string
}

// Client talks to the E-utilities endpoints. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *httputil.Client
}

// New creates an E-utilities client. An empty Email is a configuration
// error surfaced at construction so no network activity happens without it.
func New(cfg Config) (*Client, error) {
	if cfg.Email == "" {
		return nil, errors.New("entrez: email is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Tool == "" {
		cfg.Tool = "genescout"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 3
		if cfg.APIKey != "" {
			cfg.RateLimit = 10
		}
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "genescout/0.1"
	}
	return &Client{
		cfg:  cfg,
		http: httputil.NewClient(cfg.Timeout, cfg.RateLimit, int(cfg.RateLimit), cfg.UserAgent, 0),
	}, nil
}

// SearchPage is one page of esearch results, in relevance order.
type SearchPage struct {
	// Count is the total number of matches the backend reports.
	Count int

	// IDs are the PMIDs on this page.
	IDs []string
}

// Search runs one esearch page. retStart/retMax map to the E-utilities
// paging parameters.
func (c *Client) Search(ctx context.Context, query string, retStart, retMax int) (*SearchPage, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"xml"},
		"retmax":  {strconv.Itoa(retMax)},
	}
	if retStart > 0 {
		params.Set("retstart", strconv.Itoa(retStart))
	}

	var result eSearchResult
	if err := c.get(ctx, "esearch.fcgi", params, &result); err != nil {
		return nil, err
	}

	// Phrase-not-found is an empty result, not a failure.
	if result.ErrorList != nil && len(result.ErrorList.PhraseNotFound) > 0 && len(result.IDList.IDs) == 0 {
		return &SearchPage{}, nil
	}

	return &SearchPage{Count: result.Count, IDs: result.IDList.IDs}, nil
}

// FetchTitles returns the article title per PMID via esummary. PMIDs the
// backend does not know are absent from the map.
func (c *Client) FetchTitles(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}

	var result eSummaryResult
	if err := c.get(ctx, "esummary.fcgi", params, &result); err != nil {
		return nil, err
	}

	titles := make(map[string]string, len(result.DocSums))
	for _, doc := range result.DocSums {
		for _, item := range doc.Items {
			if item.Name == "Title" {
				if title := strings.TrimSpace(item.Value); title != "" {
					titles[doc.ID] = title
				}
				break
			}
		}
	}
	return titles, nil
}

// FetchAbstracts returns abstract text per PMID via efetch. Structured
// abstracts are flattened with their section labels; papers without an
// abstract are absent from the map.
func (c *Client) FetchAbstracts(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"rettype": {"abstract"},
	}

	var result pubmedArticleSet
	if err := c.get(ctx, "efetch.fcgi", params, &result); err != nil {
		return nil, err
	}

	abstracts := make(map[string]string, len(result.Articles))
	for _, art := range result.Articles {
		pmid := strings.TrimSpace(art.MedlineCitation.PMID)
		if pmid == "" {
			continue
		}
		if text := flattenAbstract(art.MedlineCitation.Article.Abstract); text != "" {
			abstracts[pmid] = text
		}
	}
	return abstracts, nil
}

// FetchCitationCounts returns the PMC cited-in count per PMID via elink.
// A PMID with no citing articles maps to 0; PMIDs missing from the
// response are absent from the map.
func (c *Client) FetchCitationCounts(ctx context.Context, ids []string) (map[string]int, error) {
	if len(ids) == 0 {
		return map[string]int{}, nil
	}

	params := url.Values{
		"dbfrom":   {"pubmed"},
		"db":       {"pmc"},
		"linkname": {citedInLinkName},
		"retmode":  {"xml"},
	}
	// One id parameter per PMID keeps LinkSets separated per input.
	for _, id := range ids {
		params.Add("id", id)
	}

	var result eLinkResult
	if err := c.get(ctx, "elink.fcgi", params, &result); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(result.LinkSets))
	for _, set := range result.LinkSets {
		if len(set.IDList.IDs) == 0 {
			continue
		}
		pmid := set.IDList.IDs[0]
		n := 0
		for _, db := range set.LinkSetDbs {
			if db.LinkName == citedInLinkName {
				n = len(db.Links)
				break
			}
		}
		counts[pmid] = n
	}
	return counts, nil
}

// get executes one E-utilities GET and decodes the XML payload into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("tool", c.cfg.Tool)
	params.Set("email", c.cfg.Email)
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	reqURL := c.cfg.BaseURL + "/" + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", endpoint, err)
	}
	if err := xml.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing %s response: %w", endpoint, err)
	}
	return nil
}

// flattenAbstract joins labeled abstract sections into one string.
func flattenAbstract(a *abstract) string {
	if a == nil || len(a.AbstractTexts) == 0 {
		return ""
	}
	if len(a.AbstractTexts) == 1 && a.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(a.AbstractTexts[0].Value)
	}
	var parts []string
	for _, at := range a.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
