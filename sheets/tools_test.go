package sheets

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetbridge/apierr"
	"sheetbridge/gateway"
)

func TestGetToolsCatalog(t *testing.T) {
	tools := NewHandler().GetTools()

	names := make(map[string]gateway.Tool, len(tools))
	for _, tool := range tools {
		names[tool.Name] = tool
	}

	for _, want := range []string{
		"sheets_spreadsheet_create",
		"sheets_spreadsheet_get",
		"sheets_values_get",
		"sheets_values_update",
		"sheets_values_append",
		"sheets_values_clear",
		"sheets_sheet_add",
		"sheets_sheet_delete",
		"sheets_format_cells",
		"sheets_batch_update",
	} {
		_, ok := names[want]
		assert.True(t, ok, "missing tool %s", want)
	}

	format := names["sheets_format_cells"]
	assert.Contains(t, format.InputSchema.Required, "spreadsheet_id")
	assert.Contains(t, format.InputSchema.Required, "range")
}

func TestHandlerRejectsUnknownTool(t *testing.T) {
	handler := NewHandler()
	_, err := handler.HandleToolCall(context.Background(), &gateway.ToolCall{
		Name:      "sheets_pivot_dance",
		Arguments: json.RawMessage(`{}`),
		Token:     "tok",
	})
	require.Error(t, err)
	assert.Equal(t, apierr.KindUnknownTool, apierr.KindOf(err))
}

func TestParseColor(t *testing.T) {
	color, err := parseColor("#FF8000")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, color.Red, 0.001)
	assert.InDelta(t, 128.0/255, color.Green, 0.001)
	assert.InDelta(t, 0.0, color.Blue, 0.001)

	color, err = parseColor("000000")
	require.NoError(t, err)
	assert.Zero(t, color.Red)

	_, err = parseColor("#F80")
	assert.Error(t, err)

	_, err = parseColor("#GGGGGG")
	assert.Error(t, err)
}
