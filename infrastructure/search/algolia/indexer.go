// Package algolia syncs schematic metadata into an Algolia search index.
package algolia

import (
	"context"
	"fmt"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
)

// Indexer implements ports.SearchIndex against one Algolia index.
type Indexer struct {
	index  *search.Index
	logger *zap.Logger
}

// NewIndexer creates an Indexer bound to the named index.
func NewIndexer(appID, apiKey, indexName string, logger *zap.Logger) *Indexer {
	client := search.NewClient(appID, apiKey)
	return &Indexer{
		index:  client.InitIndex(indexName),
		logger: logger,
	}
}

// SaveSchematic upserts one schematic document. Algolia keys on objectID, so
// re-saving an existing schematic replaces its document.
func (i *Indexer) SaveSchematic(ctx context.Context, doc ports.SchematicDocument) error {
	if _, err := i.index.SaveObject(doc, ctx); err != nil {
		return fmt.Errorf("failed to index schematic %s: %w", doc.ObjectID, err)
	}
	i.logger.Debug("schematic indexed", zap.String("schematicId", doc.ObjectID))
	return nil
}

// DeleteSchematic removes a schematic document from the index.
func (i *Indexer) DeleteSchematic(ctx context.Context, schematicID string) error {
	if _, err := i.index.DeleteObject(schematicID, ctx); err != nil {
		return fmt.Errorf("failed to deindex schematic %s: %w", schematicID, err)
	}
	i.logger.Debug("schematic deindexed", zap.String("schematicId", schematicID))
	return nil
}
