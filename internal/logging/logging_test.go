package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", JSON: true, Output: &buf})
	require.NoError(t, err)

	logger.WithField("objective_id", "abc").Info("objective created")

	assert.Contains(t, buf.String(), `"objective_id":"abc"`)
	assert.Contains(t, buf.String(), `"msg":"objective created"`)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(Options{Level: "chatty", Output: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestSentryHook_Levels(t *testing.T) {
	hook := NewSentryHook(nil)
	assert.ElementsMatch(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}, hook.Levels())
}

func TestSentryHook_FireWithoutClient(t *testing.T) {
	hook := NewSentryHook(sentry.NewHub(nil, sentry.NewScope()))

	entry := logrus.NewEntry(logrus.New()).WithError(errors.New("boom")).WithField("team_id", "t1")
	entry.Message = "failed to delete team"

	assert.NoError(t, hook.Fire(entry))
}
