package validators

import (
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// QueryString returns the trimmed query value, cut to maxLen bytes on a rune boundary.
func QueryString(r *http.Request, key string, maxLen int) string {
	return clip(r.URL.Query().Get(key), maxLen)
}

// PathString returns the trimmed chi URL param, cut like QueryString.
func PathString(r *http.Request, key string, maxLen int) string {
	return clip(chi.URLParam(r, key), maxLen)
}

// PathID parses a positive catalog id from the chi URL param.
func PathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a positive integer", key).
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return id, nil
}

// ParseQueryInt reads an optional bounded integer; absent means defaultVal.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be numeric", key).
			WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s out of range", key).
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func clip(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || len(trimmed) <= maxLen {
		return trimmed
	}
	cut := trimmed[:maxLen]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
