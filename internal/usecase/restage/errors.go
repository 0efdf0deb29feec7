package restage

import (
	"errors"
	"net/http"
	"strings"

	"restage-service/internal/config"
	"restage-service/internal/domain"
	"restage-service/internal/poller"
	"restage-service/internal/prompt"
	"restage-service/internal/provider"
	"restage-service/internal/publisher"
)

// UserMessage maps a pipeline error to a message safe to show to end users.
// Credentials and raw provider payloads never leak through here.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingImage):
		return "No image was provided for this photo."
	case errors.Is(err, domain.ErrUnlabeledRoom):
		return "Please describe the room before restaging it."
	case errors.Is(err, prompt.ErrUnsupportedMode):
		return "The selected transformation is not supported."
	case errors.Is(err, provider.ErrNotConfigured):
		return "No AI provider is configured for this transformation."
	case errors.Is(err, provider.ErrCompletedWithoutImages):
		return "The AI provider finished but returned no image. Please try again."
	}

	var credErr *config.MissingCredentialError
	if errors.As(err, &credErr) {
		return "The restage service is missing a provider credential. Contact the administrator."
	}

	var pubErr *publisher.PublishError
	if errors.As(err, &pubErr) {
		return "Could not upload the photo for processing. Please try again."
	}

	var timeoutErr *poller.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "The restage took too long and was stopped. Please try again."
	}

	var failedErr *poller.TaskFailedError
	if errors.As(err, &failedErr) {
		if failedErr.Reason != "" {
			return "The AI provider could not restage this photo: " + failedErr.Reason
		}
		return "The AI provider could not restage this photo."
	}

	var provErr *provider.ProviderError
	if errors.As(err, &provErr) {
		return providerMessage(provErr)
	}

	return "Something went wrong while restaging this photo."
}

func providerMessage(e *provider.ProviderError) string {
	msg := strings.ToLower(e.Message)
	switch {
	case e.HTTPStatus == http.StatusUnauthorized,
		e.HTTPStatus == http.StatusForbidden,
		strings.Contains(msg, "api key"),
		strings.Contains(msg, "unauthorized"):
		return "The AI provider rejected the configured API key."
	case e.HTTPStatus == http.StatusPaymentRequired,
		strings.Contains(msg, "insufficient"),
		strings.Contains(msg, "balance"),
		strings.Contains(msg, "credit"):
		return "The AI provider account has run out of credits."
	case e.HTTPStatus == http.StatusTooManyRequests,
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return "The AI provider is rate limiting requests. Try again in a moment."
	}
	if e.Message != "" {
		return "The AI provider could not process this photo: " + e.Message
	}
	return "The AI provider could not process this photo."
}

// HTTPStatus maps a pipeline error to the status code the proxy endpoints
// respond with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrMissingImage),
		errors.Is(err, domain.ErrUnlabeledRoom),
		errors.Is(err, prompt.ErrUnsupportedMode):
		return http.StatusBadRequest
	case errors.Is(err, provider.ErrNotConfigured):
		return http.StatusInternalServerError
	}

	var provErr *provider.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.HTTPStatus {
		case http.StatusUnauthorized, http.StatusForbidden:
			return http.StatusUnauthorized
		case http.StatusPaymentRequired:
			return http.StatusPaymentRequired
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests
		}
		msg := strings.ToLower(provErr.Message)
		switch {
		case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"):
			return http.StatusUnauthorized
		case strings.Contains(msg, "insufficient"), strings.Contains(msg, "balance"), strings.Contains(msg, "credit"):
			return http.StatusPaymentRequired
		case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
			return http.StatusTooManyRequests
		}
	}

	var timeoutErr *poller.TimeoutError
	if errors.As(err, &timeoutErr) {
		return http.StatusGatewayTimeout
	}

	return http.StatusInternalServerError
}
