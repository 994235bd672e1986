package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"gorm.io/datatypes"
)

// ExtensionCookie is the shape browser cookie-export extensions emit. It
// differs from the driver protocol in field naming and the expiry unit.
type ExtensionCookie struct {
	Name           string   `json:"name"`
	Value          string   `json:"value"`
	Domain         string   `json:"domain"`
	Path           string   `json:"path"`
	Secure         bool     `json:"secure"`
	HTTPOnly       bool     `json:"httpOnly"`
	SameSite       string   `json:"sameSite"`
	ExpirationDate *float64 `json:"expirationDate"`
	Session        bool     `json:"session"`
}

// ParseCookieBundle decodes a stored cookie bundle.
func ParseCookieBundle(bundle datatypes.JSON) ([]ExtensionCookie, error) {
	if len(bundle) == 0 {
		return nil, fmt.Errorf("cookie bundle is empty")
	}
	var cookies []ExtensionCookie
	if err := json.Unmarshal(bundle, &cookies); err != nil {
		return nil, fmt.Errorf("cookie bundle is not valid json: %w", err)
	}
	return cookies, nil
}

// ToDriverCookies translates extension cookies into the driver protocol
// shape. Cookies missing a name or domain are dropped rather than failing
// the whole bundle.
func ToDriverCookies(cookies []ExtensionCookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" || c.Domain == "" {
			continue
		}
		param := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: mapSameSite(c.SameSite),
		}
		if c.Path == "" {
			param.Path = "/"
		}
		if c.ExpirationDate != nil && !c.Session {
			param.Expires = proto.TimeSinceEpoch(*c.ExpirationDate)
		}
		out = append(out, param)
	}
	return out
}

func mapSameSite(v string) proto.NetworkCookieSameSite {
	switch v {
	case "lax":
		return proto.NetworkCookieSameSiteLax
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "no_restriction", "none":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}
