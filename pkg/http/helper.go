package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"gather/pkg/config"
	apperrors "gather/pkg/errors"
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

// DecodeJSON reads a single JSON document into dst and rejects unknown fields.
// An empty body is an error.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("Request body cannot be empty")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.InvalidInput("Invalid request body: " + err.Error())
	}
	return nil
}
