// internal/store/audit_elastic.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DeividBruno15/eventoplus-sub000/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

// ElasticAuditStore appends audit documents to a single index. Entries are
// immutable; there is no update or delete path.
type ElasticAuditStore struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticAuditStore(client *elasticsearch.Client, index string) *ElasticAuditStore {
	return &ElasticAuditStore{client: client, index: index}
}

func (s *ElasticAuditStore) Append(ctx context.Context, entry *models.RejectionAudit) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(entry.ID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index audit entry: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index audit entry: %s", res.Status())
	}
	return nil
}
