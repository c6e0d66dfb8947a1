package table

import (
	"errors"
	"fmt"
)

// ErrDecode is matched by every error returned from Decode.
var ErrDecode = errors.New("decode error")

// Stage names the step of decoding that failed.
type Stage string

// Decoding stages.
const (
	StagePayload Stage = "payload"
	StageBase64  Stage = "base64"
	StageUTF8    Stage = "utf8"
	StageCSV     Stage = "csv"
	StageXLSX    Stage = "xlsx"
)

// DecodeError reports why an upload could not be turned into a table.
type DecodeError struct {
	Stage Stage
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDecode) true for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func newDecodeError(stage Stage, err error) *DecodeError {
	return &DecodeError{Stage: stage, Err: err}
}

// fieldCountError mirrors the dataframe engine's complaint about ragged rows.
type fieldCountError struct {
	line int
	want int
	got  int
}

func (e *fieldCountError) Error() string {
	return fmt.Sprintf("expected %d fields in line %d, saw %d", e.want, e.line, e.got)
}
