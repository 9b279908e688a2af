package app

import (
	"net/url"
	"strings"
)

// ValidateWebhookURL enforces the endpoint policy for subscription URLs:
// HTTPS only, hostname on the allow-list, path under /hooks.
func ValidateWebhookURL(raw string, allowedHosts []string) error {
	if strings.TrimSpace(raw) == "" {
		return NewError(KindValidation, "URL_REQUIRED", "url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return WrapError(KindValidation, "URL_INVALID", "url could not be parsed", err)
	}

	if parsed.Scheme != "https" {
		return NewError(KindValidation, "URL_SCHEME_NOT_HTTPS", "webhook urls must use https")
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return NewError(KindValidation, "URL_HOST_MISSING", "webhook url has no hostname")
	}

	allowed := false
	for _, candidate := range allowedHosts {
		if strings.EqualFold(strings.TrimSpace(candidate), host) {
			allowed = true
			break
		}
	}
	if !allowed {
		return NewError(KindValidation, "URL_HOST_NOT_ALLOWED", "webhook hostname is not on the allow-list")
	}

	if parsed.Path != "/hooks" && !strings.HasPrefix(parsed.Path, "/hooks/") {
		return NewError(KindValidation, "URL_PATH_INVALID", "webhook path must be under /hooks")
	}

	return nil
}
