package export

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultSheetsRange is the append target when none is configured
const DefaultSheetsRange = "Sheet1!A:C"

// SheetsSink appends the hourly row to a Google spreadsheet
type SheetsSink struct {
	service       *sheets.Service
	spreadsheetID string
	rangeA1       string
}

// NewSheetsSink authenticates with a service account file and returns a sink
func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, rangeA1 string, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}

	if credentialsFile != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	}
	opts = append(opts, option.WithScopes(sheets.SpreadsheetsScope))

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	if rangeA1 == "" {
		rangeA1 = DefaultSheetsRange
	}

	return &SheetsSink{
		service:       service,
		spreadsheetID: spreadsheetID,
		rangeA1:       rangeA1,
	}, nil
}

func (s *SheetsSink) Name() string { return "sheets" }

// Append writes row as raw values
func (s *SheetsSink) Append(ctx context.Context, row Row) error {
	values := &sheets.ValueRange{
		Values: [][]interface{}{row.Values()},
	}

	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, s.rangeA1, values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to spreadsheet: %w", err)
	}
	return nil
}
