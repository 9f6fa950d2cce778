package clog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewNopDoesNotPanic(t *testing.T) {
	log := NewNop()
	log.Debugw("test", "key", "value")
	log.Infow("test")
	log.Warnw("test")
	log.Errorw("test")
	require.NoError(t, log.Sync())
}

func TestNewDevelopment(t *testing.T) {
	log, err := NewDevelopment()
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Debugw("hello", "n", 1)
}
