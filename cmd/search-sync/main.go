// search-sync mirrors schematic metadata items from the table's DynamoDB
// stream into the Algolia index, so search follows writes without the API
// handlers ever talking to Algolia.
package main

import (
	"context"
	"log"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"schemstory-backend/application/ports"
	"schemstory-backend/infrastructure/config"
	"schemstory-backend/infrastructure/search/algolia"
)

var (
	index  ports.SearchIndex
	logger *zap.Logger
)

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	index = algolia.NewIndexer(cfg.AlgoliaAppID, cfg.AlgoliaAPIKey, cfg.AlgoliaIndex, logger)
}

// isSchematicMetadata keeps only the one record shape we mirror.
func isSchematicMetadata(keys map[string]events.DynamoDBAttributeValue) bool {
	return strings.HasPrefix(stringAttr(keys, "PK"), "SCHEMATIC#") &&
		stringAttr(keys, "SK") == "METADATA"
}

// stringAttr reads an S attribute, tolerating absent or differently typed
// values. The accessors on DynamoDBAttributeValue panic on type mismatch.
func stringAttr(attrs map[string]events.DynamoDBAttributeValue, name string) string {
	attr, ok := attrs[name]
	if !ok || attr.DataType() != events.DataTypeString {
		return ""
	}
	return attr.String()
}

func stringListAttr(attrs map[string]events.DynamoDBAttributeValue, name string) []string {
	attr, ok := attrs[name]
	if !ok || attr.DataType() != events.DataTypeList {
		return nil
	}
	out := make([]string, 0, len(attr.List()))
	for _, v := range attr.List() {
		if v.DataType() == events.DataTypeString {
			out = append(out, v.String())
		}
	}
	return out
}

func documentFrom(image map[string]events.DynamoDBAttributeValue) ports.SchematicDocument {
	return ports.SchematicDocument{
		ObjectID:       stringAttr(image, "schematicId"),
		Title:          stringAttr(image, "title"),
		Description:    stringAttr(image, "description"),
		AuthorID:       stringAttr(image, "authorId"),
		AuthorUsername: stringAttr(image, "authorUsername"),
		Tags:           stringListAttr(image, "tags"),
		CreatedAt:      stringAttr(image, "createdAt"),
	}
}

// handle walks one stream batch. Soft-deleted and removed schematics leave
// the index; everything else is upserted.
func handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		keys := record.Change.Keys
		if !isSchematicMetadata(keys) {
			continue
		}
		schematicID := strings.TrimPrefix(stringAttr(keys, "PK"), "SCHEMATIC#")

		switch record.EventName {
		case "REMOVE":
			if err := index.DeleteSchematic(ctx, schematicID); err != nil {
				return err
			}
		case "INSERT", "MODIFY":
			image := record.Change.NewImage
			if stringAttr(image, "status") == "deleted" {
				if err := index.DeleteSchematic(ctx, schematicID); err != nil {
					return err
				}
				continue
			}
			if err := index.SaveSchematic(ctx, documentFrom(image)); err != nil {
				return err
			}
		}

		logger.Debug("stream record synced",
			zap.String("schematicId", schematicID),
			zap.String("eventName", record.EventName),
		)
	}
	return nil
}

func main() {
	lambda.Start(handle)
}
