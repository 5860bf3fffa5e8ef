package http

import (
	"net/http"
	"strconv"
	"time"

	"wellnest/pkg/config"
	apperrors "wellnest/pkg/errors"
	"wellnest/pkg/interval"
)

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

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ExtractDate parses an optional "YYYY-MM-DD" query parameter.
func ExtractDate(r *http.Request, param string) (time.Time, bool, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return time.Time{}, false, nil
	}
	d, err := interval.ParseDate(s)
	if err != nil {
		return time.Time{}, false, apperrors.InvalidInput("invalid " + param + " parameter: " + s)
	}
	return d, true, nil
}

// ExtractPositiveInt parses an optional positive integer query parameter.
func ExtractPositiveInt(r *http.Request, param string) (int, bool, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, false, apperrors.InvalidInput("invalid " + param + " parameter: " + s)
	}
	return v, true, nil
}
