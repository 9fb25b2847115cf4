package sheets

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Client wraps the Google Sheets API client. One is built per tool call from
// the caller's bearer token and discarded with the request; nothing is shared
// across invocations.
type Client struct {
	service *sheets.Service
}

// NewClient creates a Sheets client authenticated with the given access token.
func NewClient(ctx context.Context, accessToken string) (*Client, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	service, err := sheets.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service}, nil
}

// CreateSpreadsheet creates a spreadsheet, optionally with named sheet tabs.
func (c *Client) CreateSpreadsheet(ctx context.Context, title string, sheetTitles []string) (*sheets.Spreadsheet, error) {
	spreadsheet := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}
	for _, sheetTitle := range sheetTitles {
		spreadsheet.Sheets = append(spreadsheet.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: sheetTitle},
		})
	}

	created, err := c.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	return created, nil
}

// GetSpreadsheet gets spreadsheet metadata.
func (c *Client) GetSpreadsheet(ctx context.Context, spreadsheetID string) (*sheets.Spreadsheet, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	return spreadsheet, nil
}

// GetValues gets cell values from a range.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, range_ string) (*sheets.ValueRange, error) {
	values, err := c.service.Spreadsheets.Values.Get(spreadsheetID, range_).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get values: %w", err)
	}
	return values, nil
}

// UpdateValues updates cell values in a range.
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) (*sheets.UpdateValuesResponse, error) {
	valueRange := &sheets.ValueRange{Values: values}
	response, err := c.service.Spreadsheets.Values.Update(spreadsheetID, range_, valueRange).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update values: %w", err)
	}
	return response, nil
}

// AppendValues appends rows after the last row of data in a range.
func (c *Client) AppendValues(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) (*sheets.AppendValuesResponse, error) {
	valueRange := &sheets.ValueRange{Values: values}
	response, err := c.service.Spreadsheets.Values.Append(spreadsheetID, range_, valueRange).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to append values: %w", err)
	}
	return response, nil
}

// ClearValues clears cell values in a range, keeping formatting.
func (c *Client) ClearValues(ctx context.Context, spreadsheetID, range_ string) (*sheets.ClearValuesResponse, error) {
	response, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, range_, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to clear values: %w", err)
	}
	return response, nil
}

// AddSheet adds a new sheet tab to a spreadsheet.
func (c *Client) AddSheet(ctx context.Context, spreadsheetID, title string) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	response, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}
	return response, nil
}

// DeleteSheet deletes a sheet tab by its numeric id.
func (c *Client) DeleteSheet(ctx context.Context, spreadsheetID string, sheetID int64) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteSheet: &sheets.DeleteSheetRequest{SheetId: sheetID},
		}},
	}
	response, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to delete sheet: %w", err)
	}
	return response, nil
}

// FormatCells applies a cell format to a grid range.
func (c *Client) FormatCells(ctx context.Context, spreadsheetID string, gridRange *sheets.GridRange, format *sheets.CellFormat, fields string) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	request := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  gridRange,
				Cell:   &sheets.CellData{UserEnteredFormat: format},
				Fields: fields,
			},
		}},
	}
	response, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to format cells: %w", err)
	}
	return response, nil
}

// BatchUpdate applies raw administrative update requests verbatim.
func (c *Client) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	request := &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}
	response, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, request).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to apply batch update: %w", err)
	}
	return response, nil
}
