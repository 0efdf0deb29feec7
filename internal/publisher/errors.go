package publisher

import (
	"errors"
	"fmt"
	"net/url"
)

// PublishError covers a missing publishing credential, a host rejecting the
// payload, and a response without a recognizable URL field.
type PublishError struct {
	Host    string
	Message string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish via %s: %s", e.Host, e.Message)
}

// redactURLError strips query parameters and fragments from transport errors.
// Upload endpoints carry the API key in the query string, and url.Error
// reproduces the full request URL, so the raw error text must never reach a
// PublishError (which gets logged).
func redactURLError(err error) string {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err.Error()
	}
	u, perr := url.Parse(uerr.URL)
	if perr != nil {
		return fmt.Sprintf("%s: %v", uerr.Op, uerr.Err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return fmt.Sprintf("%s %s: %v", uerr.Op, u.String(), uerr.Err)
}
