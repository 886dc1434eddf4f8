package http

import (
	"net/http"
	"strconv"
	"time"

	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
)

// UserIDHeader carries the caller identity asserted by the gateway in
// front of these services. Handlers consume the id as-is; nothing here
// authenticates.
const UserIDHeader = "X-User-ID"

const dateLayout = "2006-01-02"

func ExtractUserID(r *http.Request) (string, error) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		return "", apperrors.Unauthorized("Missing " + UserIDHeader + " header")
	}
	return userID, nil
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ParseDate parses a calendar day in YYYY-MM-DD form. The result is
// midnight UTC, matching the date-only semantics of stay ranges.
func ParseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperrors.InvalidInput("missing required parameter: " + name)
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + ", must be YYYY-MM-DD")
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
