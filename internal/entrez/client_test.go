// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genescout/internal/httputil"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(Config{
		BaseURL: ts.URL,
		Email:   "curator@example.org",
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return c, ts
}

func TestNew_RequiresEmail(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestSearch_ParsesPage(t *testing.T) {
	var gotPath string
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("term")
		w.Write([]byte(`<?xml version="1.0"?>
<eSearchResult>
  <Count>42</Count><RetMax>3</RetMax><RetStart>0</RetStart>
  <IdList><Id>111</Id><Id>222</Id><Id>333</Id></IdList>
</eSearchResult>`))
	})

	page, err := c.Search(context.Background(), "kawasaki disease AND mutation", 0, 3)
	require.NoError(t, err)

	assert.Equal(t, "/esearch.fcgi", gotPath)
	assert.Equal(t, "kawasaki disease AND mutation", gotQuery)
	assert.Equal(t, 42, page.Count)
	assert.Equal(t, []string{"111", "222", "333"}, page.IDs)
}

func TestSearch_PhraseNotFound(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
<eSearchResult>
  <Count>0</Count>
  <IdList></IdList>
  <ErrorList><PhraseNotFound>nosuchphrase</PhraseNotFound></ErrorList>
</eSearchResult>`))
	})

	page, err := c.Search(context.Background(), "nosuchphrase", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.IDs)
}

func TestSearch_SendsIdentification(t *testing.T) {
	var email, tool, apiKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		email, tool, apiKey = q.Get("email"), q.Get("tool"), q.Get("api_key")
		w.Write([]byte(`<eSearchResult><Count>0</Count><IdList></IdList></eSearchResult>`))
	}))
	defer ts.Close()

	c, err := New(Config{BaseURL: ts.URL, Email: "curator@example.org", APIKey: "k123"})
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "q", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, "curator@example.org", email)
	assert.Equal(t, "genescout", tool)
	assert.Equal(t, "k123", apiKey)
}

func TestFetchTitles(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esummary.fcgi", r.URL.Path)
		assert.Equal(t, "111,222", r.URL.Query().Get("id"))
		w.Write([]byte(`<?xml version="1.0"?>
<eSummaryResult>
  <DocSum><Id>111</Id><Item Name="PubDate" Type="Date">2021</Item><Item Name="Title" Type="String">TLR7 variants in severe disease.</Item></DocSum>
  <DocSum><Id>222</Id><Item Name="Title" Type="String">A second paper.</Item></DocSum>
</eSummaryResult>`))
	})

	titles, err := c.FetchTitles(context.Background(), []string{"111", "222"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"111": "TLR7 variants in severe disease.",
		"222": "A second paper.",
	}, titles)
}

func TestFetchTitles_EmptyInput(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty input")
	})
	titles, err := c.FetchTitles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestFetchAbstracts_FlattensSections(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		w.Write([]byte(`<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle><MedlineCitation><PMID>111</PMID><Article>
    <ArticleTitle>Paper one</ArticleTitle>
    <Abstract>
      <AbstractText Label="BACKGROUND">Children developed MIS-C.</AbstractText>
      <AbstractText Label="RESULTS">IFIH1 variants were enriched.</AbstractText>
    </Abstract>
  </Article></MedlineCitation></PubmedArticle>
  <PubmedArticle><MedlineCitation><PMID>222</PMID><Article>
    <ArticleTitle>Paper two</ArticleTitle>
    <Abstract><AbstractText>Plain abstract.</AbstractText></Abstract>
  </Article></MedlineCitation></PubmedArticle>
  <PubmedArticle><MedlineCitation><PMID>333</PMID><Article>
    <ArticleTitle>No abstract</ArticleTitle>
  </Article></MedlineCitation></PubmedArticle>
</PubmedArticleSet>`))
	})

	abstracts, err := c.FetchAbstracts(context.Background(), []string{"111", "222", "333"})
	require.NoError(t, err)

	assert.Equal(t, "BACKGROUND: Children developed MIS-C. RESULTS: IFIH1 variants were enriched.", abstracts["111"])
	assert.Equal(t, "Plain abstract.", abstracts["222"])
	assert.NotContains(t, abstracts, "333")
}

func TestFetchCitationCounts(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/elink.fcgi", r.URL.Path)
		assert.Equal(t, []string{"111", "222"}, r.URL.Query()["id"])
		assert.Equal(t, "pubmed_pmc_refs", r.URL.Query().Get("linkname"))
		w.Write([]byte(`<?xml version="1.0"?>
<eLinkResult>
  <LinkSet>
    <IdList><Id>111</Id></IdList>
    <LinkSetDb><DbTo>pmc</DbTo><LinkName>pubmed_pmc_refs</LinkName>
      <Link><Id>900001</Id></Link><Link><Id>900002</Id></Link><Link><Id>900003</Id></Link>
    </LinkSetDb>
  </LinkSet>
  <LinkSet>
    <IdList><Id>222</Id></IdList>
  </LinkSet>
</eLinkResult>`))
	})

	counts, err := c.FetchCitationCounts(context.Background(), []string{"111", "222"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"111": 3, "222": 0}, counts)
}

func TestGet_ServerErrorSurfaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.Search(context.Background(), "q", 0, 1)
	require.Error(t, err)
}

func TestGet_MalformedResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("this is not xml"))
	})
	_, err := c.FetchTitles(context.Background(), []string{"111"})
	require.Error(t, err)
}
