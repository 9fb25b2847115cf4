package sheets

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/sheets/v4"

	"sheetbridge/apierr"
)

// spanPattern matches a closed rectangular span like A1:B2. Open-ended spans
// (A:A, 1:5) and bare cells are rejected.
var spanPattern = regexp.MustCompile(`^([A-Z]+)([0-9]+):([A-Z]+)([0-9]+)$`)

// ColumnIndex converts column letters to a zero-based column index. Letters
// are a bijective base-26 number: "A"=0, "Z"=25, "AA"=26.
func ColumnIndex(letters string) int64 {
	var n int64
	for _, r := range letters {
		n = n*26 + int64(r-'A'+1)
	}
	return n - 1
}

// ColumnLetters is the inverse of ColumnIndex.
func ColumnLetters(index int64) string {
	var b strings.Builder
	for n := index + 1; n > 0; {
		n--
		b.WriteByte(byte('A' + n%26))
		n /= 26
	}
	letters := []byte(b.String())
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// SheetLookup resolves a sheet title to its numeric id within a spreadsheet.
type SheetLookup func(ctx context.Context, spreadsheetID, title string) (int64, error)

// SheetID resolves a sheet's title to its stable numeric id. Every call
// fetches fresh metadata; titles match exactly and case-sensitively.
func (c *Client) SheetID(ctx context.Context, spreadsheetID, title string) (int64, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}

	return 0, apierr.SheetNotFound(title)
}

// ResolveRange converts a human-notation range reference ("Sheet1!A1:B2")
// into a grid range addressed by numeric sheet id with zero-based, half-open
// row and column bounds.
func (c *Client) ResolveRange(ctx context.Context, spreadsheetID, reference string) (*sheets.GridRange, error) {
	return parseRange(ctx, spreadsheetID, reference, c.SheetID)
}

// parseRange implements the range resolution against any sheet lookup.
//
// The input is closed ("A1:B2" covers rows 1-2 and columns A-B inclusive);
// the output is half-open, so end indices are the inclusive human bound plus
// one. An end coordinate preceding the start is passed through unchanged; the
// backend decides what an inverted rectangle means.
func parseRange(ctx context.Context, spreadsheetID, reference string, lookup SheetLookup) (*sheets.GridRange, error) {
	sheetName, span, found := strings.Cut(reference, "!")
	if !found {
		return nil, apierr.MalformedRange("range must include sheet name")
	}

	// Spreadsheet UIs quote sheet names containing spaces or special
	// characters.
	if len(sheetName) >= 2 && strings.HasPrefix(sheetName, "'") && strings.HasSuffix(sheetName, "'") {
		sheetName = sheetName[1 : len(sheetName)-1]
	}

	match := spanPattern.FindStringSubmatch(strings.ToUpper(span))
	if match == nil {
		return nil, apierr.MalformedRange("range must be like A1:B2")
	}

	sheetID, err := lookup(ctx, spreadsheetID, sheetName)
	if err != nil {
		return nil, err
	}

	startRow, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return nil, apierr.MalformedRange("range must be like A1:B2")
	}
	endRow, err := strconv.ParseInt(match[4], 10, 64)
	if err != nil {
		return nil, apierr.MalformedRange("range must be like A1:B2")
	}

	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    startRow - 1,
		EndRowIndex:      endRow,
		StartColumnIndex: ColumnIndex(match[1]),
		EndColumnIndex:   ColumnIndex(match[3]) + 1,
		ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
	}, nil
}
