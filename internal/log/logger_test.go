package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "catalogue-test"})

	l := WithComponent("cache")
	l.Info().Str(FieldKey, "catalogue_cache").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache", entry[FieldComponent])
	assert.Equal(t, "catalogue-test", entry["service"])
	assert.Equal(t, "catalogue_cache", entry[FieldKey])
	assert.Equal(t, "hello", entry["message"])

	// later calls are ignored
	Configure(Config{Service: "other"})
	buf.Reset()
	bl := Base()
	bl.Info().Msg("again")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "catalogue-test", entry["service"])
}
