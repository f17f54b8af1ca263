package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/example/agrobazaar/internal/models"
)

// ErrSearchDisabled is returned by Search when no index is configured.
var ErrSearchDisabled = errors.New("product search is not configured")

// ProductIndexer mirrors products into a full-text index.
type ProductIndexer interface {
	Index(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, sellerID uuid.UUID, query string, limit int) ([]uuid.UUID, error)
}

// NopIndexer is used when Elasticsearch is not configured.
type NopIndexer struct{}

func (NopIndexer) Index(context.Context, *models.Product) error { return nil }

func (NopIndexer) Delete(context.Context, uuid.UUID) error { return nil }

func (NopIndexer) Search(context.Context, uuid.UUID, string, int) ([]uuid.UUID, error) {
	return nil, ErrSearchDisabled
}

// productDocument is the indexed projection of a product.
type productDocument struct {
	SellerID     string    `json:"sellerId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Brand        string    `json:"brand"`
	Tags         []string  `json:"tags"`
	SellingPrice float64   `json:"sellingPrice"`
	CreatedAt    time.Time `json:"createdAt"`
}

const productIndexMapping = `{
  "mappings": {
    "properties": {
      "sellerId":     {"type": "keyword"},
      "name":         {"type": "text"},
      "description":  {"type": "text"},
      "category":     {"type": "keyword"},
      "brand":        {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "tags":         {"type": "text"},
      "sellingPrice": {"type": "double"},
      "createdAt":    {"type": "date"}
    }
  }
}`

// ElasticIndexer stores products in an Elasticsearch index.
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticIndexer constructs an ElasticIndexer writing to index.
func NewElasticIndexer(client *elasticsearch.Client, index string) *ElasticIndexer {
	return &ElasticIndexer{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (e *ElasticIndexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{e.index}}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("elastic index exists: %w", err)
	}
	res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: e.index,
		Body:  strings.NewReader(productIndexMapping),
	}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("elastic index create: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic index create: %s", res.String())
	}
	return nil
}

func (e *ElasticIndexer) Index(ctx context.Context, p *models.Product) error {
	doc := productDocument{
		SellerID:     p.SellerID.String(),
		Name:         p.Name,
		Description:  p.Description,
		Category:     string(p.Category),
		Brand:        p.Brand,
		Tags:         p.Tags,
		SellingPrice: p.Price.SellingPrice,
		CreatedAt:    p.CreatedAt,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("elastic index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic index %s: %s", p.ID, res.String())
	}
	return nil
}

func (e *ElasticIndexer) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id.String(),
		Refresh:    "true",
	}.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("elastic delete: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elastic delete %s: %s", id, res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns ids of the seller's products matching query, best match first.
func (e *ElasticIndexer) Search(ctx context.Context, sellerID uuid.UUID, query string, limit int) ([]uuid.UUID, error) {
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"multi_match": map[string]any{
						"query":     query,
						"fields":    []string{"name^3", "description", "tags^2", "brand"},
						"fuzziness": "AUTO",
					},
				},
				"filter": []any{
					map[string]any{"term": map[string]any{"sellerId": sellerID.String()}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("elastic search encode: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elastic search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elastic search: %s", res.String())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("elastic search decode: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
