package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"

	"sheetbridge/apierr"
	"sheetbridge/gateway"
)

// Handler implements the gateway.ServiceHandler interface for Sheets. It is
// stateless; a fresh client is built from the caller's token on every call.
type Handler struct{}

// NewHandler creates a new Sheets handler.
func NewHandler() *Handler {
	return &Handler{}
}

// GetTools returns the available Sheets tools.
func (h *Handler) GetTools() []gateway.Tool {
	spreadsheetID := gateway.Property{
		Type:        "string",
		Description: "Spreadsheet ID",
	}
	a1Range := gateway.Property{
		Type:        "string",
		Description: "A1 notation range (e.g., 'Sheet1!A1:B10')",
	}

	return []gateway.Tool{
		{
			Name:        "sheets_spreadsheet_create",
			Description: "Create a new spreadsheet, optionally with named sheet tabs",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"title": {
						Type:        "string",
						Description: "Spreadsheet title",
					},
					"sheet_titles": {
						Type:        "array",
						Description: "Titles for the initial sheet tabs",
						Items:       &gateway.Property{Type: "string"},
					},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        "sheets_spreadsheet_get",
			Description: "Get spreadsheet metadata",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
				},
				Required: []string{"spreadsheet_id"},
			},
		},
		{
			Name:        "sheets_values_get",
			Description: "Get cell values from a range",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"range":          a1Range,
				},
				Required: []string{"spreadsheet_id", "range"},
			},
		},
		{
			Name:        "sheets_values_update",
			Description: "Update cell values in a range",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"range":          a1Range,
					"values": {
						Type:        "array",
						Description: "2D array of values",
						Items:       &gateway.Property{Type: "array"},
					},
				},
				Required: []string{"spreadsheet_id", "range", "values"},
			},
		},
		{
			Name:        "sheets_values_append",
			Description: "Append rows after the last row of data in a range",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"range":          a1Range,
					"values": {
						Type:        "array",
						Description: "2D array of values",
						Items:       &gateway.Property{Type: "array"},
					},
				},
				Required: []string{"spreadsheet_id", "range", "values"},
			},
		},
		{
			Name:        "sheets_values_clear",
			Description: "Clear cell values in a range, keeping formatting",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"range":          a1Range,
				},
				Required: []string{"spreadsheet_id", "range"},
			},
		},
		{
			Name:        "sheets_sheet_add",
			Description: "Add a new sheet tab to a spreadsheet",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"title": {
						Type:        "string",
						Description: "Title of the new sheet tab",
					},
				},
				Required: []string{"spreadsheet_id", "title"},
			},
		},
		{
			Name:        "sheets_sheet_delete",
			Description: "Delete a sheet tab by title",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"title": {
						Type:        "string",
						Description: "Title of the sheet tab to delete",
					},
				},
				Required: []string{"spreadsheet_id", "title"},
			},
		},
		{
			Name:        "sheets_format_cells",
			Description: "Format cells in a range (bold, italic, colors, alignment, number format)",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"range": {
						Type:        "string",
						Description: "A1 notation range with sheet name, closed span only (e.g., 'Sheet1!A1:B2')",
					},
					"bold": {
						Type:        "boolean",
						Description: "Bold text",
					},
					"italic": {
						Type:        "boolean",
						Description: "Italic text",
					},
					"font_size": {
						Type:        "integer",
						Description: "Font size in points",
					},
					"background_color": {
						Type:        "string",
						Description: "Background color as #RRGGBB",
					},
					"text_color": {
						Type:        "string",
						Description: "Text color as #RRGGBB",
					},
					"horizontal_alignment": {
						Type:        "string",
						Description: "Horizontal alignment",
						Enum:        []string{"LEFT", "CENTER", "RIGHT"},
					},
					"number_format": {
						Type:        "string",
						Description: "Number format pattern (e.g., '#,##0.00')",
					},
				},
				Required: []string{"spreadsheet_id", "range"},
			},
		},
		{
			Name:        "sheets_batch_update",
			Description: "Apply raw batchUpdate requests to a spreadsheet",
			InputSchema: gateway.InputSchema{
				Type: "object",
				Properties: map[string]gateway.Property{
					"spreadsheet_id": spreadsheetID,
					"requests": {
						Type:        "array",
						Description: "Array of Sheets API batchUpdate request objects, passed verbatim",
						Items:       &gateway.Property{Type: "object"},
					},
				},
				Required: []string{"spreadsheet_id", "requests"},
			},
		},
	}
}

// HandleToolCall handles a tool call for the Sheets service.
func (h *Handler) HandleToolCall(ctx context.Context, call *gateway.ToolCall) (interface{}, error) {
	client, err := NewClient(ctx, call.Token)
	if err != nil {
		return nil, err
	}

	switch call.Name {
	case "sheets_spreadsheet_create":
		var args struct {
			Title       string   `json:"title"`
			SheetTitles []string `json:"sheet_titles"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		spreadsheet, err := client.CreateSpreadsheet(ctx, args.Title, args.SheetTitles)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"spreadsheetId":  spreadsheet.SpreadsheetId,
			"spreadsheetUrl": spreadsheet.SpreadsheetUrl,
			"title":          spreadsheet.Properties.Title,
		}, nil

	case "sheets_spreadsheet_get":
		var args struct {
			SpreadsheetID string `json:"spreadsheet_id"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		spreadsheet, err := client.GetSpreadsheet(ctx, args.SpreadsheetID)
		if err != nil {
			return nil, err
		}

		result := map[string]interface{}{
			"spreadsheetId":  spreadsheet.SpreadsheetId,
			"spreadsheetUrl": spreadsheet.SpreadsheetUrl,
			"title":          spreadsheet.Properties.Title,
		}
		if len(spreadsheet.Sheets) > 0 {
			tabs := make([]map[string]interface{}, len(spreadsheet.Sheets))
			for i, sheet := range spreadsheet.Sheets {
				tabs[i] = map[string]interface{}{
					"sheetId": sheet.Properties.SheetId,
					"title":   sheet.Properties.Title,
					"index":   sheet.Properties.Index,
				}
			}
			result["sheets"] = tabs
		}
		return result, nil

	case "sheets_values_get":
		var args struct {
			SpreadsheetID string `json:"spreadsheet_id"`
			Range         string `json:"range"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		values, err := client.GetValues(ctx, args.SpreadsheetID, args.Range)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"range":          values.Range,
			"majorDimension": values.MajorDimension,
			"values":         values.Values,
		}, nil

	case "sheets_values_update":
		var args struct {
			SpreadsheetID string          `json:"spreadsheet_id"`
			Range         string          `json:"range"`
			Values        [][]interface{} `json:"values"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		response, err := client.UpdateValues(ctx, args.SpreadsheetID, args.Range, args.Values)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"spreadsheetId":  response.SpreadsheetId,
			"updatedRange":   response.UpdatedRange,
			"updatedRows":    response.UpdatedRows,
			"updatedColumns": response.UpdatedColumns,
			"updatedCells":   response.UpdatedCells,
		}, nil

	case "sheets_values_append":
		var args struct {
			SpreadsheetID string          `json:"spreadsheet_id"`
			Range         string          `json:"range"`
			Values        [][]interface{} `json:"values"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		response, err := client.AppendValues(ctx, args.SpreadsheetID, args.Range, args.Values)
		if err != nil {
			return nil, err
		}
		result := map[string]interface{}{
			"spreadsheetId": response.SpreadsheetId,
			"tableRange":    response.TableRange,
		}
		if response.Updates != nil {
			result["updatedRange"] = response.Updates.UpdatedRange
			result["updatedCells"] = response.Updates.UpdatedCells
		}
		return result, nil

	case "sheets_values_clear":
		var args struct {
			SpreadsheetID string `json:"spreadsheet_id"`
			Range         string `json:"range"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		response, err := client.ClearValues(ctx, args.SpreadsheetID, args.Range)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"spreadsheetId": response.SpreadsheetId,
			"clearedRange":  response.ClearedRange,
		}, nil

	case "sheets_sheet_add":
		var args struct {
			SpreadsheetID string `json:"spreadsheet_id"`
			Title         string `json:"title"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		response, err := client.AddSheet(ctx, args.SpreadsheetID, args.Title)
		if err != nil {
			return nil, err
		}
		result := map[string]interface{}{
			"spreadsheetId": response.SpreadsheetId,
		}
		if len(response.Replies) > 0 && response.Replies[0].AddSheet != nil {
			result["sheetId"] = response.Replies[0].AddSheet.Properties.SheetId
			result["title"] = response.Replies[0].AddSheet.Properties.Title
		}
		return result, nil

	case "sheets_sheet_delete":
		var args struct {
			SpreadsheetID string `json:"spreadsheet_id"`
			Title         string `json:"title"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		sheetID, err := client.SheetID(ctx, args.SpreadsheetID, args.Title)
		if err != nil {
			return nil, err
		}
		response, err := client.DeleteSheet(ctx, args.SpreadsheetID, sheetID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"spreadsheetId": response.SpreadsheetId,
			"deletedSheet":  args.Title,
		}, nil

	case "sheets_format_cells":
		return h.handleFormatCells(ctx, client, call.Arguments)

	case "sheets_batch_update":
		var args struct {
			SpreadsheetID string            `json:"spreadsheet_id"`
			Requests      []*sheets.Request `json:"requests"`
		}
		if err := json.Unmarshal(call.Arguments, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		response, err := client.BatchUpdate(ctx, args.SpreadsheetID, args.Requests)
		if err != nil {
			return nil, err
		}
		return response, nil

	default:
		return nil, apierr.UnknownTool(call.Name)
	}
}

func (h *Handler) handleFormatCells(ctx context.Context, client *Client, arguments json.RawMessage) (interface{}, error) {
	var args struct {
		SpreadsheetID       string `json:"spreadsheet_id"`
		Range               string `json:"range"`
		Bold                *bool  `json:"bold"`
		Italic              *bool  `json:"italic"`
		FontSize            int64  `json:"font_size"`
		BackgroundColor     string `json:"background_color"`
		TextColor           string `json:"text_color"`
		HorizontalAlignment string `json:"horizontal_alignment"`
		NumberFormat        string `json:"number_format"`
	}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	gridRange, err := client.ResolveRange(ctx, args.SpreadsheetID, args.Range)
	if err != nil {
		return nil, err
	}

	format := &sheets.CellFormat{TextFormat: &sheets.TextFormat{}}
	var fields []string

	if args.Bold != nil {
		format.TextFormat.Bold = *args.Bold
		fields = append(fields, "userEnteredFormat.textFormat.bold")
	}
	if args.Italic != nil {
		format.TextFormat.Italic = *args.Italic
		fields = append(fields, "userEnteredFormat.textFormat.italic")
	}
	if args.FontSize > 0 {
		format.TextFormat.FontSize = args.FontSize
		fields = append(fields, "userEnteredFormat.textFormat.fontSize")
	}
	if args.TextColor != "" {
		color, err := parseColor(args.TextColor)
		if err != nil {
			return nil, err
		}
		format.TextFormat.ForegroundColor = color
		fields = append(fields, "userEnteredFormat.textFormat.foregroundColor")
	}
	if args.BackgroundColor != "" {
		color, err := parseColor(args.BackgroundColor)
		if err != nil {
			return nil, err
		}
		format.BackgroundColor = color
		fields = append(fields, "userEnteredFormat.backgroundColor")
	}
	if args.HorizontalAlignment != "" {
		format.HorizontalAlignment = strings.ToUpper(args.HorizontalAlignment)
		fields = append(fields, "userEnteredFormat.horizontalAlignment")
	}
	if args.NumberFormat != "" {
		format.NumberFormat = &sheets.NumberFormat{
			Type:    "NUMBER",
			Pattern: args.NumberFormat,
		}
		fields = append(fields, "userEnteredFormat.numberFormat")
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one format property is required")
	}

	response, err := client.FormatCells(ctx, args.SpreadsheetID, gridRange, format, strings.Join(fields, ","))
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"spreadsheetId":  response.SpreadsheetId,
		"formattedRange": args.Range,
	}, nil
}

// parseColor converts a #RRGGBB string to a Sheets color.
func parseColor(hex string) (*sheets.Color, error) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return nil, fmt.Errorf("color must be in #RRGGBB form, got %q", hex)
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("color must be in #RRGGBB form, got %q", hex)
	}

	return &sheets.Color{
		Red:   float64(value>>16&0xff) / 255,
		Green: float64(value>>8&0xff) / 255,
		Blue:  float64(value&0xff) / 255,
	}, nil
}
