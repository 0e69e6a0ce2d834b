// Package filter trims captured traffic down to the JSON API calls worth
// generating declarations for.
package filter

import (
	"path"
	"strings"

	"github.com/yourorg/apidecl/internal/config"
	"github.com/yourorg/apidecl/pkg/types"
)

// FilterConfig is an alias of config.FilterConfig.
type FilterConfig = config.FilterConfig

// Apply drops noise, collapses retried 5xx calls and merges repeated calls to
// the same endpoint. The first successful sample of an endpoint is kept.
func Apply(exchanges []types.Exchange, cfg FilterConfig) []types.Exchange {
	filtered := make([]types.Exchange, 0, len(exchanges))
	for _, ex := range exchanges {
		if strings.EqualFold(ex.Method, "OPTIONS") {
			continue
		}
		if hasIgnoredExtension(ex.Path, cfg.IgnoreExtensions) {
			continue
		}
		if matchesContentType(ex.ResponseContentType, cfg.IgnoreContentTypes) {
			continue
		}
		if hasIgnoredPath(ex.Path, cfg.IgnorePaths) {
			continue
		}
		if !IsJSON(ex.ResponseContentType) && !IsJSON(ex.ContentType) {
			continue
		}
		filtered = append(filtered, ex)
	}

	filtered = removeConsecutive5xx(filtered)
	return mergeIdentical(filtered)
}

// IsJSON reports whether a content type carries a JSON document.
func IsJSON(ct string) bool {
	base := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	return base == "application/json" || strings.HasSuffix(base, "+json") || base == "text/json"
}

func hasIgnoredExtension(p string, exts []string) bool {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(strings.TrimSpace(e)) == ext {
			return true
		}
	}
	return false
}

func hasIgnoredPath(p string, prefixes []string) bool {
	for _, pref := range prefixes {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		if strings.HasPrefix(p, pref) {
			return true
		}
	}
	return false
}

func matchesContentType(ct string, ignores []string) bool {
	if strings.TrimSpace(ct) == "" {
		return false
	}
	base := strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	for _, p := range ignores {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasSuffix(p, "/*") {
			prefix := strings.TrimSuffix(p, "*")
			if strings.HasPrefix(base, prefix) {
				return true
			}
			continue
		}
		if base == p {
			return true
		}
	}
	return false
}

func removeConsecutive5xx(exchanges []types.Exchange) []types.Exchange {
	out := make([]types.Exchange, 0, len(exchanges))
	var prevKey string
	var prevWas5xx bool
	for _, ex := range exchanges {
		key := Key(ex)
		if prevWas5xx && key == prevKey && is5xx(ex.StatusCode) {
			continue
		}
		out = append(out, ex)
		prevKey = key
		prevWas5xx = is5xx(ex.StatusCode)
	}
	return out
}

// mergeIdentical folds calls with the same endpoint key into one exchange.
// A later 2xx sample replaces an earlier failed one.
func mergeIdentical(exchanges []types.Exchange) []types.Exchange {
	out := make([]types.Exchange, 0, len(exchanges))
	index := make(map[string]int, len(exchanges))
	for _, ex := range exchanges {
		count := ex.CallCount
		if count == 0 {
			count = 1
		}
		key := Key(ex)
		if idx, ok := index[key]; ok {
			total := out[idx].CallCount + count
			if !is2xx(out[idx].StatusCode) && is2xx(ex.StatusCode) {
				seq := out[idx].Seq
				out[idx] = ex
				out[idx].Seq = seq
			}
			out[idx].CallCount = total
			continue
		}
		ex.CallCount = count
		index[key] = len(out)
		out = append(out, ex)
	}
	return out
}

// Key identifies an endpoint by method and path. Query strings are ignored
// since they do not change the body shape.
func Key(ex types.Exchange) string {
	return strings.ToUpper(ex.Method) + " " + ex.Path
}

func is5xx(code int) bool {
	return code >= 500 && code <= 599
}

func is2xx(code int) bool {
	return code >= 200 && code <= 299
}
