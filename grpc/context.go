// Package grpc provides token-based authentication for gRPC services
// that sit behind the same token issuer as the HTTP handlers.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Default metadata keys for authentication context.
const (
	// DefaultMetadataKeyToken is the metadata key carrying the access
	// token, with or without a "Bearer " prefix.
	DefaultMetadataKeyToken = "authorization"
)

// Config holds the metadata key configuration for auth context.
type Config struct {
	// MetadataKeyToken is the gRPC metadata key for the access token.
	// Defaults to "authorization".
	MetadataKeyToken string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyToken: DefaultMetadataKeyToken,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyToken == "" {
		c.MetadataKeyToken = DefaultMetadataKeyToken
	}
}

// TokenFromContext extracts the access token from incoming metadata.
// Returns empty string if no token is present.
func TokenFromContext(ctx context.Context) string {
	return TokenFromContextWithConfig(ctx, nil)
}

// TokenFromContextWithConfig extracts the access token using the
// specified config.
func TokenFromContextWithConfig(ctx context.Context, config *Config) string {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(config.MetadataKeyToken)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimPrefix(values[0], "Bearer ")
}

// TokenToOutgoingContext adds the access token to outgoing gRPC
// context metadata.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return TokenToOutgoingContextWithKey(ctx, token, DefaultMetadataKeyToken)
}

// TokenToOutgoingContextWithKey adds the access token with a custom key.
func TokenToOutgoingContextWithKey(ctx context.Context, token string, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, "Bearer "+token)
}
