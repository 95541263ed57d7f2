package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapWrapper_FieldsAndNames(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapAdapter(zap.New(core)).Named("proposal")

	log.WithFields(map[string]interface{}{"proposalId": "p-1"}).
		WithError(errors.New("boom")).
		Warn("selection failed", map[string]interface{}{"attempt": 1})

	entries := logs.All()
	assert.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "selection failed", entry.Message)
	assert.Equal(t, "proposal", entry.LoggerName)

	ctx := entry.ContextMap()
	assert.Equal(t, "p-1", ctx["proposalId"])
	assert.Equal(t, "boom", ctx["error"])
	assert.EqualValues(t, 1, ctx["attempt"])
}

func TestNew_LevelParsing(t *testing.T) {
	assert.True(t, New("debug", "console").Core().Enabled(zap.DebugLevel))
	assert.False(t, New("warn", "json").Core().Enabled(zap.InfoLevel))
	assert.False(t, New("", "json").Core().Enabled(zap.DebugLevel))
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.With(map[string]interface{}{"k": "v"}).Error("ignored", nil)
	})
}
