package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/bkyoung/clang-tidy-reviewer/internal/adapter/rest"
)

// MapHTTPError maps GitHub API HTTP status codes to typed rest.Error values,
// so the shared retry logic can decide what is worth retrying.
func MapHTTPError(statusCode int, body []byte) *rest.Error {
	message := parseErrorMessage(statusCode, body)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &rest.Error{
			Type:       rest.ErrTypeAuthentication,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}

	case http.StatusTooManyRequests:
		return &rest.Error{
			Type:       rest.ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Service:    serviceName,
		}

	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return &rest.Error{
			Type:       rest.ErrTypeInvalidRequest,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}

	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return &rest.Error{
			Type:       rest.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  true,
			Service:    serviceName,
		}

	default:
		return &rest.Error{
			Type:       rest.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Retryable:  false,
			Service:    serviceName,
		}
	}
}

// parseErrorMessage extracts a readable message from GitHub's error body.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		preview := string(body)
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		if preview == "" {
			return fmt.Sprintf("HTTP %d", statusCode)
		}
		return fmt.Sprintf("HTTP %d: %s", statusCode, preview)
	}

	if len(errResp.Errors) > 0 {
		var details []string
		for _, e := range errResp.Errors {
			switch {
			case e.Message != "":
				details = append(details, e.Message)
			case e.Field != "":
				details = append(details, fmt.Sprintf("%s: %s", e.Field, e.Code))
			}
		}
		if len(details) > 0 {
			return fmt.Sprintf("%s: %s", errResp.Message, strings.Join(details, "; "))
		}
	}

	return errResp.Message
}
