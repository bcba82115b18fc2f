package dynamodb

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"schemstory-backend/application/ports"
	appErrors "schemstory-backend/pkg/errors"
)

// The continuation key of every query in this table consists solely of string
// attributes (primary key pair plus the index key pair), so the token codec
// flattens it to a string map, serializes to JSON, and base64url-encodes it.
// Ordering is owned by the query's scan direction; the token carries none.

// EncodePageToken renders a continuation key as an opaque URL-safe token.
// A nil key yields the empty token, meaning the listing is exhausted.
func EncodePageToken(lastKey ports.Item) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	flat := make(map[string]string, len(lastKey))
	for name, value := range lastKey {
		s, ok := value.(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("continuation key attribute %s is not a string", name)
		}
		flat[name] = s.Value
	}

	raw, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("failed to marshal continuation key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodePageToken reverses EncodePageToken. Malformed input yields a
// validation error before any store call is made; the empty token decodes to
// nil (first page).
func DecodePageToken(token string) (ports.Item, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, invalidToken(err)
	}

	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, invalidToken(err)
	}
	if len(flat) == 0 {
		return nil, invalidToken(fmt.Errorf("empty continuation key"))
	}

	key := make(ports.Item, len(flat))
	for name, value := range flat {
		key[name] = &types.AttributeValueMemberS{Value: value}
	}
	return key, nil
}

func invalidToken(cause error) error {
	return appErrors.NewValidationError("invalid pagination token").
		WithCode("INVALID_PAGE_TOKEN").
		WithCause(cause)
}
