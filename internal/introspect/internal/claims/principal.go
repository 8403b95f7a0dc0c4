package claims

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/jamesprial/token-introspector/pkg/oauth"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// BuildClient builds a machine-client principal from normalized claims.
// Absent fields yield empty values.
func BuildClient(claims principal.ClaimsSet) *principal.Client {
	scopes := claims.Scopes()
	return &principal.Client{
		ClientID: claims.ClientID(),
		Scopes:   scopes,
		Granted:  principal.ScopeAuthorities(scopes),
		Claims:   claims,
	}
}

// BuildUser builds a user principal from the info, authorities and
// attributes extensions in fields. Malformed extensions are logged and
// skipped. attributes are merged into claims, overwriting on collision.
func BuildUser(fields map[string]any, claims principal.ClaimsSet, logger *slog.Logger) *principal.User {
	if logger == nil {
		logger = slog.Default()
	}
	if claims == nil {
		claims = principal.ClaimsSet{}
	}

	user := &principal.User{Status: principal.StatusActive}

	switch info := fields[oauth.ClaimInfo].(type) {
	case nil:
	case map[string]any:
		user.UserID = intField(info, oauth.InfoUserID, logger)
		user.Type = intField(info, oauth.InfoType, logger)
		user.OrganizationID = intField(info, oauth.InfoOrganizationID, logger)
		user.Username = stringField(info, oauth.InfoUsername, logger)
		user.Nickname = stringField(info, oauth.InfoNickname, logger)
		user.Avatar = stringField(info, oauth.InfoAvatar, logger)
	default:
		logger.Warn("ignoring malformed info claim", "type", fmt.Sprintf("%T", info))
	}

	switch authorities := fields[oauth.ClaimAuthorities].(type) {
	case nil:
	case []any:
		user.Granted = make([]string, 0, len(authorities))
		seen := make(map[string]struct{}, len(authorities))
		for _, a := range authorities {
			s, ok := a.(string)
			if !ok {
				logger.Warn("ignoring non-string authority", "value", fmt.Sprint(a))
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			user.Granted = append(user.Granted, s)
		}
	default:
		logger.Warn("ignoring malformed authorities claim", "type", fmt.Sprintf("%T", authorities))
	}

	switch attributes := fields[oauth.ClaimAttributes].(type) {
	case nil:
	case map[string]any:
		for k, v := range attributes {
			claims[k] = v
		}
	default:
		logger.Warn("ignoring malformed attributes claim", "type", fmt.Sprintf("%T", attributes))
	}

	user.Claims = claims
	return user
}

// intField reads a whole number given as a JSON number or a numeric string.
// Zero means unset.
func intField(info map[string]any, name string, logger *slog.Logger) int {
	raw, ok := info[name]
	if !ok || raw == nil {
		return 0
	}
	n, err := toInt(raw)
	if err != nil {
		logger.Warn("ignoring malformed info field", "field", name, "error", err)
		return 0
	}
	return n
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, strconv.IntSize)
		if err == nil {
			return int(i), nil
		}
		f, ferr := n.Float64()
		if ferr != nil {
			return 0, err
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || f > math.MaxInt || f < math.MinInt {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int(f), nil
}

func stringField(info map[string]any, name string, logger *slog.Logger) string {
	raw, ok := info[name]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		logger.Warn("ignoring malformed info field", "field", name, "type", fmt.Sprintf("%T", raw))
		return ""
	}
	return s
}
