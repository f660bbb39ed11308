// Package search keeps the Elasticsearch index of posts and answers the
// full-text and related-by-tag queries.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	es8 "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"blog-api/models"
)

type ES struct {
	Client *es8.Client
	Index  string
}

// New builds a client for esURL. A nil transport uses http.DefaultTransport.
func New(esURL, index string, transport http.RoundTripper) (*ES, error) {
	if transport == nil {
		transport = http.DefaultTransport
	}
	es, err := es8.NewClient(es8.Config{Addresses: []string{esURL}, Transport: transport})
	if err != nil {
		return nil, err
	}
	return &ES{Client: es, Index: index}, nil
}

const mapping = `{
  "mappings": {
    "properties": {
      "title":    {"type":"text"},
      "content":  {"type":"text"},
      "category": {"type":"keyword"},
      "tags":     {"type":"keyword"}
    }
  }
}`

// EnsureIndex creates the index unless it already exists.
func (e *ES) EnsureIndex(ctx context.Context) error {
	res, err := e.Client.Indices.Exists([]string{e.Index}, e.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return err
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = e.Client.Indices.Create(e.Index,
		e.Client.Indices.Create.WithContext(ctx),
		e.Client.Indices.Create.WithBody(bytes.NewBufferString(mapping)))
	if err != nil {
		return err
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("es create index %s: %s", e.Index, res.Status())
	}
	return nil
}

func (e *ES) IndexPost(ctx context.Context, doc models.PostDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := e.Client.Index(e.Index, bytes.NewReader(b),
		e.Client.Index.WithContext(ctx),
		e.Client.Index.WithDocumentID(doc.ID))
	if err != nil {
		return err
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", doc.ID, res.Status())
	}
	return nil
}

// DeletePost treats a missing document as already deleted.
func (e *ES) DeletePost(ctx context.Context, id string) error {
	res, err := e.Client.Delete(e.Index, id, e.Client.Delete.WithContext(ctx))
	if err != nil {
		return err
	}
	defer drain(res)
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}

func (e *ES) Search(ctx context.Context, q string, size int) ([]models.SearchHit, error) {
	return e.search(ctx, map[string]any{
		"size": size,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "content"},
			},
		},
	})
}

// Related ranks posts by shared tags, excluding the post itself.
func (e *ES) Related(ctx context.Context, tags []string, excludeID string, size int) ([]models.SearchHit, error) {
	return e.search(ctx, map[string]any{
		"size": size,
		"query": map[string]any{
			"bool": map[string]any{
				"must_not": []any{
					map[string]any{"ids": map[string]any{"values": []string{excludeID}}},
				},
				"should": []any{
					map[string]any{"terms": map[string]any{"tags": tags}},
				},
				"minimum_should_match": 1,
			},
		},
	})
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Title string `json:"title"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (e *ES) search(ctx context.Context, body map[string]any) ([]models.SearchHit, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	res, err := e.Client.Search(
		e.Client.Search.WithContext(ctx),
		e.Client.Search.WithIndex(e.Index),
		e.Client.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, err
	}
	defer drain(res)
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("es search decode: %w", err)
	}
	hits := make([]models.SearchHit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, models.SearchHit{ID: h.ID, Title: h.Source.Title, Score: h.Score})
	}
	return hits, nil
}

func drain(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
