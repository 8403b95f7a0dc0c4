// Package oauth provides shared RFC 7662 token introspection constants.
package oauth

// Standard introspection response members as defined in RFC 7662 Section 2.2.
const (
	// ClaimActive is the boolean indicator of whether the token is active.
	ClaimActive = "active"

	// ClaimAudience is the intended audience of the token (string or array).
	ClaimAudience = "aud"

	// ClaimClientID is the client identifier for the client that requested the token.
	ClaimClientID = "client_id"

	// ClaimExpiresAt is the expiry timestamp in seconds since the epoch.
	ClaimExpiresAt = "exp"

	// ClaimIssuedAt is the issuance timestamp in seconds since the epoch.
	ClaimIssuedAt = "iat"

	// ClaimIssuer is the issuer of the token.
	ClaimIssuer = "iss"

	// ClaimNotBefore is the not-before timestamp in seconds since the epoch.
	ClaimNotBefore = "nbf"

	// ClaimScope is the space-separated list of scopes.
	ClaimScope = "scope"

	// ClaimSubject is the subject of the token.
	ClaimSubject = "sub"

	// ClaimUsername is the human-readable identifier of the resource owner.
	ClaimUsername = "username"

	// ClaimTokenType is the type of the token (e.g., "Bearer").
	ClaimTokenType = "token_type"

	// ClaimJTI is the string identifier of the token.
	ClaimJTI = "jti"
)

// Extension members returned by the authorization server on top of RFC 7662.
const (
	// ClaimIsClient marks a token issued to a machine client rather than a user.
	ClaimIsClient = "is_client"

	// ClaimInfo is the nested user information object.
	ClaimInfo = "info"

	// ClaimAuthorities is the array of authority strings granted to the user.
	ClaimAuthorities = "authorities"

	// ClaimAttributes is a flat object merged into the principal attributes.
	ClaimAttributes = "attributes"
)

// Members of the nested info object.
const (
	InfoUserID         = "userId"
	InfoType           = "type"
	InfoOrganizationID = "organizationId"
	InfoUsername       = "username"
	InfoNickname       = "nickname"
	InfoAvatar         = "avatar"
)

// Error response members as defined in RFC 6749 Section 5.2.
const (
	ErrorField            = "error"
	ErrorDescriptionField = "error_description"
)

// Request parameters as defined in RFC 7662 Section 2.1.
const (
	// ParamToken is the form parameter carrying the token to introspect.
	ParamToken = "token"

	// ParamClientID is the client_secret_post client identifier parameter.
	ParamClientID = "client_id"

	// ParamClientSecret is the client_secret_post client secret parameter.
	ParamClientSecret = "client_secret"
)

// JWT response claim as defined in RFC 9701 Section 5.
const (
	// ClaimTokenIntrospection carries the introspection response inside a signed JWT.
	ClaimTokenIntrospection = "token_introspection"
)

// Token type constants as defined in RFC 6750.
const (
	// BearerToken is the Bearer authentication scheme.
	BearerToken = "Bearer"
)

// HTTP header names.
const (
	HeaderAuthorization   = "Authorization"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderContentType     = "Content-Type"
	HeaderAccept          = "Accept"
	HeaderRequestID       = "X-Request-ID"
)

// Content type constants.
const (
	// ContentTypeJSON is the application/json content type.
	ContentTypeJSON = "application/json"

	// ContentTypeFormURLEncoded is the application/x-www-form-urlencoded content type.
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"

	// ContentTypeIntrospectionJWT is the signed introspection response type from RFC 9701.
	ContentTypeIntrospectionJWT = "application/token-introspection+jwt"
)

// AuthorityScopePrefix is prepended to every scope to form a client authority.
const AuthorityScopePrefix = "SCOPE_"
