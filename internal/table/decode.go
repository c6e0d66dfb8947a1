package table

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
)

// MIME types recognized in the payload prefix.
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Decode turns an uploaded payload of the form "<metadata-prefix>,<base64-body>"
// into a Table. The prefix is only consulted to recognize spreadsheet uploads;
// everything else is parsed as comma-separated text with a header row.
//
// Every failure is a *DecodeError and never comes with a partial table.
func Decode(payload string) (*Table, error) {
	prefix, body, ok := strings.Cut(payload, ",")
	if !ok {
		return nil, newDecodeError(StagePayload, errors.New("payload has no metadata prefix separator"))
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(body))
	if err != nil {
		return nil, newDecodeError(StageBase64, err)
	}

	if isSpreadsheet(prefix) {
		return decodeXLSX(data)
	}
	return decodeCSV(data)
}

// DecodeFile reads a file from disk, wraps it in the same payload form a
// browser upload produces, and decodes it.
func DecodeFile(path string) (*Table, error) {
	payload, err := PayloadFromFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}

// PayloadFromFile reads path and encodes it as a data URL payload. The MIME
// type is chosen from the file extension.
func PayloadFromFile(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by the operator
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	mime := MIMECSV
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		mime = MIMEXLSX
	}
	return EncodePayload(mime, data), nil
}

// EncodePayload builds a "data:<mime>;base64,<body>" payload.
func EncodePayload(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func isSpreadsheet(prefix string) bool {
	return strings.Contains(prefix, MIMEXLSX)
}

func decodeCSV(data []byte) (*Table, error) {
	if !utf8.Valid(data) {
		return nil, newDecodeError(StageUTF8, errors.New("payload is not valid UTF-8 text"))
	}
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, newDecodeError(StageUTF8, err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, newDecodeError(StageCSV, errors.New("no columns to parse from file"))
	}
	if err != nil {
		return nil, newDecodeError(StageCSV, err)
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newDecodeError(StageCSV, err)
		}
		records = append(records, rec)
	}

	t, err := New(header, records)
	if err != nil {
		return nil, newDecodeError(StageCSV, err)
	}
	return t, nil
}

func decodeXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, newDecodeError(StageXLSX, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, newDecodeError(StageXLSX, errors.New("workbook has no sheets"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, newDecodeError(StageXLSX, err)
	}
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, newDecodeError(StageXLSX, errors.New("no columns to parse from sheet"))
	}

	t, err := New(rows[0], rows[1:])
	if err != nil {
		return nil, newDecodeError(StageXLSX, err)
	}
	return t, nil
}

// dropBlankRows removes rows with no non-empty cells, the way blank lines are
// skipped in CSV input.
func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if cell != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
