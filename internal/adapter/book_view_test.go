package adapter

import (
	"bytes"
	"testing"

	"book-catalogue/internal/core/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatus(t *testing.T) {
	cases := []struct {
		rec  model.Record
		want string
	}{
		{model.Record{"status": "Available", "availableCount": 1.0}, "1 Copy Available"},
		{model.Record{"status": "Available", "availableCount": 3.0}, "3 Copies Available"},
		{model.Record{"status": "Unavailable", "availableCount": 0.0}, "Unavailable"},
		{model.Record{"status": "Unavailable"}, "Unavailable"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatStatus(tc.rec))
	}
}

func TestNewBookView_Placeholders(t *testing.T) {
	v := NewBookView(model.Record{"status": "Available", "title": ""})
	assert.Equal(t, model.NotInformed, v.Title)
	assert.Equal(t, model.NotInformed, v.Author)
	assert.Nil(t, v.AvailableCount)
	assert.Nil(t, v.AddedAt)
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterSink(&buf, false)
	s.OnStatusMessage("Loading catalogue...", model.SeverityLoading)
	s.OnStatusMessage("Data updated successfully!", model.SeveritySuccess)
	s.OnIngestionError("Error loading data: offline")

	out := buf.String()
	assert.NotContains(t, out, "Loading catalogue")
	assert.Contains(t, out, "[success] Data updated successfully!")
	assert.Contains(t, out, "Check your connection")

	buf.Reset()
	NewWriterSink(&buf, true).OnStatusMessage("Syncing with server...", model.SeverityLoading)
	assert.Equal(t, "[loading] Syncing with server...\n", buf.String())
}
