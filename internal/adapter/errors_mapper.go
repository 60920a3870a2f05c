package adapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case resp.StatusCode() == http.StatusRequestTimeout,
		resp.StatusCode() == http.StatusTooManyRequests,
		resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("%w: http %d: %s", ErrUnavailable, resp.StatusCode(), body)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrRemoteWrite, resp.StatusCode(), body)
	}
}
