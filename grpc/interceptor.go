package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/jmkang/duoauth"
)

// VerifyTokenFunc validates an access token and returns its claims.
// Typically this is (*duoauth.TokenIssuer).Verify.
type VerifyTokenFunc func(token string) (*duoauth.TokenClaims, error)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// VerifyToken validates tokens found in metadata. Required.
	VerifyToken VerifyTokenFunc

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but ClaimsFromContext returns nil.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that requires auth for all methods.
func DefaultInterceptorConfig(verify VerifyTokenFunc) *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		VerifyToken:   verify,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(verify VerifyTokenFunc, publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig(verify)
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig(verify VerifyTokenFunc) *InterceptorConfig {
	config := DefaultInterceptorConfig(verify)
	config.RequireAuth = false
	return config
}

type claimsContextKey struct{}

// ContextWithClaims returns a context carrying verified token claims.
func ContextWithClaims(ctx context.Context, claims *duoauth.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified claims placed in the context
// by the interceptors, or nil for unauthenticated requests.
func ClaimsFromContext(ctx context.Context) *duoauth.TokenClaims {
	claims, _ := ctx.Value(claimsContextKey{}).(*duoauth.TokenClaims)
	return claims
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies
// the access token in metadata and attaches its claims to the context.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config.EnsureDefaults()

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		claims := authenticate(ctx, config)

		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			if claims == nil {
				return nil, status.Error(codes.Unauthenticated, "authentication required")
			}
		}

		if claims != nil {
			ctx = ContextWithClaims(ctx, claims)
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns a gRPC stream interceptor that verifies
// the access token in metadata.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config.EnsureDefaults()

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		claims := authenticate(ctx, config)

		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			if claims == nil {
				return status.Error(codes.Unauthenticated, "authentication required")
			}
		}

		if claims != nil {
			ss = &wrappedStream{ServerStream: ss, ctx: ContextWithClaims(ctx, claims)}
		}
		return handler(srv, ss)
	}
}

// authenticate extracts and verifies the token from context metadata.
func authenticate(ctx context.Context, config *InterceptorConfig) *duoauth.TokenClaims {
	if config.VerifyToken == nil {
		return nil
	}
	token := TokenFromContextWithConfig(ctx, config.Config)
	if token == "" {
		return nil
	}
	claims, err := config.VerifyToken(token)
	if err != nil {
		return nil
	}
	return claims
}

// EnsureDefaults fills in default values for any unset fields.
func (c *InterceptorConfig) EnsureDefaults() {
	if c.Config == nil {
		c.Config = DefaultConfig()
	}
	c.Config.EnsureDefaults()
	if c.PublicMethods == nil {
		c.PublicMethods = make(map[string]bool)
	}
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}
