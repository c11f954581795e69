package graph

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/pinpatch/internal/pintype"
)

var (
	// ErrNodeNotFound is returned when a link endpoint names an unknown node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrPinNotFound is returned when a link endpoint names an unknown pin.
	ErrPinNotFound = errors.New("pin not found")
	// ErrSchemaRejected is the sentinel wrapped by every *RejectError.
	ErrSchemaRejected = errors.New("connection rejected by schema")
)

// RejectReason classifies why the schema refused a connection.
type RejectReason string

const (
	ReasonSameNode     RejectReason = "same_node"
	ReasonReversed     RejectReason = "reversed"
	ReasonDirection    RejectReason = "direction"
	ReasonExecMismatch RejectReason = "exec_mismatch"
	ReasonType         RejectReason = "type_mismatch"
)

// RejectError describes a refused schema connection.
type RejectError struct {
	Reason       RejectReason
	FromCategory pintype.Category
	ToCategory   pintype.Category
	Detail       string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaRejected, e.Detail)
}

func (e *RejectError) Unwrap() error { return ErrSchemaRejected }

// AsReject extracts a *RejectError from err.
func AsReject(err error) (*RejectError, bool) {
	var rej *RejectError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
