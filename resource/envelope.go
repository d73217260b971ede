package resource

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/tidwall/gjson"
)

// Envelope is the backend response wrapper.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Message    string      `json:"message,omitempty"`
	Total      *int        `json:"total,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Count is the number of matching records: total, else pagination.total, else n.
func (e Envelope[T]) Count(n int) int {
	if e.Total != nil {
		return *e.Total
	}
	if e.Pagination != nil {
		return e.Pagination.Total
	}
	return n
}

// DecodeList decodes a list envelope. success must be true and data an array.
func DecodeList[T any](body []byte) (Envelope[[]T], error) {
	var env Envelope[[]T]
	if err := checkEnvelope(body, true); err != nil {
		return env, err
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("%w: %v", apierror.ErrInvalidResponse, err)
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return env, nil
}

// DecodeItem decodes a single-entity envelope. success must be true and data present.
func DecodeItem[T any](body []byte) (Envelope[T], error) {
	var env Envelope[T]
	if err := checkEnvelope(body, false); err != nil {
		return env, err
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("%w: %v", apierror.ErrInvalidResponse, err)
	}
	return env, nil
}

// CheckSuccess validates only the success flag, for endpoints whose data is optional.
func CheckSuccess(body []byte) error {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: body is not JSON", apierror.ErrInvalidResponse)
	}
	return successFlag(gjson.ParseBytes(body))
}

func checkEnvelope(body []byte, list bool) error {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return fmt.Errorf("%w: body is not JSON", apierror.ErrInvalidResponse)
	}
	root := gjson.ParseBytes(body)
	if err := successFlag(root); err != nil {
		return err
	}

	data := root.Get("data")
	switch {
	case !data.Exists() || data.Type == gjson.Null:
		return fmt.Errorf("%w: data is missing", apierror.ErrInvalidResponse)
	case list && !data.IsArray():
		return fmt.Errorf("%w: data is not an array", apierror.ErrInvalidResponse)
	}
	return nil
}

func successFlag(root gjson.Result) error {
	success := root.Get("success")
	if success.Type != gjson.True && success.Type != gjson.False {
		return fmt.Errorf("%w: success flag is missing", apierror.ErrInvalidResponse)
	}
	if !success.Bool() {
		return &RejectedError{Message: root.Get("message").String()}
	}
	return nil
}

// RejectedError is a 2xx envelope whose success flag is false.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return apierror.ErrInvalidResponse.Error() + ": success is false"
	}
	return apierror.ErrInvalidResponse.Error() + ": " + e.Message
}

func (e *RejectedError) Unwrap() error {
	return apierror.ErrInvalidResponse
}
