package rlog

import (
	"bytes"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestLevelFilter(t *testing.T) {
	var buffer bytes.Buffer
	SetOutput(&buffer)
	defer SetOutput(os.Stderr)
	defer SetLevel("info")

	assert.NoError(t, SetLevel("warn"))
	l := New("module", "test")
	l.Info("hidden message")
	l.Warn("visible message", "peer", "127.0.0.1:8333")
	assert.NotContains(t, buffer.String(), "hidden message")
	assert.Contains(t, buffer.String(), "visible message")
	assert.Contains(t, buffer.String(), "peer=127.0.0.1:8333")

	buffer.Reset()
	assert.NoError(t, SetLevel("DEBUG"))
	Println("Close", "node")
	assert.Contains(t, buffer.String(), "Close node")
}

func TestInvalidLevel(t *testing.T) {
	err := SetLevel("loud")
	assert.Equal(t, ErrInvalidLevel, errors.Cause(err))
}
