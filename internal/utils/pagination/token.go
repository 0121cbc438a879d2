package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Tokens travel in query strings, so they use the URL-safe alphabet without padding.
var tokenEncoding = base64.RawURLEncoding

// EncodeMultiFieldToken creates a token with any number of string fields.
// Fields must not contain the "|" separator.
func EncodeMultiFieldToken(fields ...string) string {
	return tokenEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}
