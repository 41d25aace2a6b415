package lib

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetSMTPClientSelectsProvider(t *testing.T) {
	defer os.Unsetenv("SMTP_PROVIDER")
	defer os.Unsetenv("SMTP_HOST")

	os.Setenv("SMTP_PROVIDER", "gmail")
	c, err := GetSMTPClient()
	assert.NoError(t, err)
	assert.NotNil(t, c)

	os.Setenv("SMTP_PROVIDER", "sendgrid")
	c, err = GetSMTPClient()
	assert.NoError(t, err)
	assert.NotNil(t, c)

	os.Setenv("SMTP_PROVIDER", "")
	os.Setenv("SMTP_HOST", "localhost")
	c, err = GetSMTPClient()
	assert.NoError(t, err)
	assert.NotNil(t, c)
}
