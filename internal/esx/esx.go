// Package esx indexes collection entities into Elasticsearch and serves full-text search.
package esx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"cardvault-api/internal/config"
)

// Client is the Elasticsearch client bound to the entity index.
type Client struct {
	es    *es8.Client
	index string
}

// Open returns nil without error when ES_ADDRS is empty.
func Open(cfg *config.Config) (*Client, func(), error) {
	if strings.TrimSpace(cfg.ES.Addrs) == "" {
		return nil, func() {}, nil
	}
	addrs := lo.FilterMap(strings.Split(cfg.ES.Addrs, ","), func(s string, _ int) (string, bool) {
		t := strings.TrimSpace(s)
		return t, t != ""
	})
	es, err := es8.NewClient(es8.Config{Addresses: addrs, Username: cfg.ES.Username, Password: cfg.ES.Password})
	if err != nil {
		return nil, func() {}, err
	}
	return &Client{es: es, index: lo.Ternary(cfg.ES.Index != "", cfg.ES.Index, "entities")}, func() {}, nil
}

// EntityDoc is the indexed form of a card, deck or pack. Custom holds the
// rendered custom fields as "label: value" strings.
type EntityDoc struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Kind        string    `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Series      string    `json:"series,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	IsFavorite  bool      `json:"is_favorite"`
	Custom      []string  `json:"custom,omitempty"`
	Extra       []string  `json:"extra,omitempty"`
	UpdatedAt   string    `json:"updated_at"`
}

// Hit is one search result.
type Hit struct {
	ID    uuid.UUID `json:"id"`
	Kind  string    `json:"kind"`
	Name  string    `json:"name"`
	Score float64   `json:"score"`
}

// SearchResult is a page of hits.
type SearchResult struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}

// IndexEntity upserts doc. A nil client is a no-op.
func (c *Client) IndexEntity(ctx context.Context, doc EntityDoc) error {
	if c == nil {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := c.es.Index(c.index, bytes.NewReader(b),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(doc.ID.String()),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmtError(res)
	}
	return nil
}

// DeleteEntity removes a document; a missing document is not an error.
func (c *Client) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	if c == nil {
		return nil
	}
	res, err := c.es.Delete(c.index, id.String(), c.es.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmtError(res)
	}
	return nil
}

// Search runs a multi_match query restricted to one owner and, optionally, one kind.
func (c *Client) Search(ctx context.Context, owner uuid.UUID, kind, query string, from, size int) (SearchResult, error) {
	empty := SearchResult{Hits: []Hit{}}
	if c == nil {
		return empty, nil
	}
	b, err := json.Marshal(searchBody(owner, kind, query))
	if err != nil {
		return empty, err
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(b)),
		c.es.Search.WithFrom(from),
		c.es.Search.WithSize(size),
	)
	if err != nil {
		return empty, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return empty, fmtError(res)
	}
	var raw struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []rawHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return empty, fmt.Errorf("es decode: %w", err)
	}
	out := SearchResult{Total: raw.Hits.Total.Value}
	out.Hits = lo.Map(raw.Hits.Hits, func(h rawHit, _ int) Hit {
		return Hit{ID: h.Source.ID, Kind: h.Source.Kind, Name: h.Source.Name, Score: h.Score}
	})
	return out, nil
}

type rawHit struct {
	Score  float64   `json:"_score"`
	Source EntityDoc `json:"_source"`
}

func searchBody(owner uuid.UUID, kind, query string) map[string]any {
	filter := []any{map[string]any{"term": map[string]any{"owner_id": owner.String()}}}
	if kind != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"kind": kind}})
	}
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":  query,
						"fields": []string{"name^3", "series^2", "tags^2", "custom", "extra", "description"},
					},
				},
				"filter": filter,
			},
		},
	}
}

func fmtError(res *esapi.Response) error { return fmt.Errorf("es error: %s", res.String()) }
