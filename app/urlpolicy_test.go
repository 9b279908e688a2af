package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWebhookURL(t *testing.T) {
	allowed := []string{"hooks.example.com", "hooks.partner.io"}

	valid := []string{
		"https://hooks.example.com/hooks",
		"https://hooks.example.com/hooks/abc",
		"https://HOOKS.EXAMPLE.COM/hooks/abc",
		"https://hooks.partner.io/hooks/deep/path",
	}
	for _, url := range valid {
		assert.NoError(t, ValidateWebhookURL(url, allowed), url)
	}

	invalid := map[string]string{
		"":                                      "URL_REQUIRED",
		"   ":                                   "URL_REQUIRED",
		"http://hooks.example.com/hooks/abc":    "URL_SCHEME_NOT_HTTPS",
		"ftp://hooks.example.com/hooks/abc":     "URL_SCHEME_NOT_HTTPS",
		"https://evil.example/hooks/x":          "URL_HOST_NOT_ALLOWED",
		"https://hooks.example.com.evil/hooks":  "URL_HOST_NOT_ALLOWED",
		"https://hooks.example.com/webhooks/x":  "URL_PATH_INVALID",
		"https://hooks.example.com/":            "URL_PATH_INVALID",
		"https://hooks.example.com/hookster/ab": "URL_PATH_INVALID",
	}
	for url, code := range invalid {
		err := ValidateWebhookURL(url, allowed)
		require.Error(t, err, url)
		assert.Equal(t, code, CodeOf(err), url)
		assert.Equal(t, KindValidation, KindOf(err), url)
	}
}

func TestValidateWebhookURL_EmptyAllowList(t *testing.T) {
	err := ValidateWebhookURL("https://hooks.example.com/hooks/abc", nil)
	require.Error(t, err)
	assert.Equal(t, "URL_HOST_NOT_ALLOWED", CodeOf(err))
}
