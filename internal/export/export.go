// Package export provides functions to export calls to various formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/matsen/calldesk/internal/call"
	"github.com/xuri/excelize/v2"
)

// Supported export formats.
const (
	FormatJSONL = "jsonl"
	FormatXLSX  = "xlsx"
)

// Formats lists the supported export formats.
var Formats = []string{FormatJSONL, FormatXLSX}

// SheetName is the worksheet that WriteXLSX fills.
const SheetName = "Calls"

// Header is the first row of the XLSX export.
var Header = []string{"ID", "Caller Name", "Contact Number", "Description", "Required Services", "Created At", "Status"}

// WriteJSONL writes one JSON object per call, in order.
func WriteJSONL(w io.Writer, calls []call.Call) error {
	enc := json.NewEncoder(w)
	for _, c := range calls {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("encoding call %d: %w", c.ID, err)
		}
	}
	return nil
}

// Row returns the spreadsheet cells for one call.
func Row(c call.Call) []any {
	return []any{
		c.ID,
		c.CallerName,
		c.ContactNumber,
		c.Description,
		c.RequiredServices,
		c.CreatedAt.Format(call.TimeLayout),
		string(c.Status),
	}
}

// WriteXLSX writes calls to a workbook at path with a header row.
func WriteXLSX(path string, calls []call.Call) error {
	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet rather than leave an empty Sheet1 behind.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, c := range calls {
		row := Row(c)
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing call %d: %w", c.ID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}
