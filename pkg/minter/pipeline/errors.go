package pipeline

import (
	"encoding/json"
	"errors"
)

var ErrMintInProgress = errors.New("pipeline: mint already in progress")

type ErrorKind int

const (
	KindNoWalletConnected ErrorKind = iota + 1
	KindMissingField
	KindUploadFailed
	KindTransactionFailed
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoWalletConnected:
		return "no_wallet_connected"
	case KindMissingField:
		return "missing_field"
	case KindUploadFailed:
		return "upload_failed"
	case KindTransactionFailed:
		return "transaction_failed"
	default:
		return "unknown_error"
	}
}

type Stage string

const (
	StageImage    Stage = "image"
	StageMetadata Stage = "metadata"
)

// Error is the single terminal error of a failed attempt. Error() is the
// short message shown to the user; the low-level cause is only reachable
// through Unwrap.
type Error struct {
	Kind   ErrorKind
	Field  string
	Stage  Stage
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return e.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Message() string {
	switch e.Kind {
	case KindNoWalletConnected:
		return "Wallet not connected"
	case KindMissingField:
		if e.Field == "image" {
			return "Please select an image"
		}
		return "Please fill in all fields"
	case KindUploadFailed:
		if e.Stage == StageMetadata {
			return "Failed to upload metadata"
		}
		return "Failed to upload image"
	case KindTransactionFailed:
		return "Transaction error"
	default:
		return "An unknown error occurred"
	}
}

func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
		Stage   Stage  `json:"stage,omitempty"`
		Reason  string `json:"reason,omitempty"`
	}{
		Kind:    e.Kind.String(),
		Message: e.Message(),
		Field:   e.Field,
		Stage:   e.Stage,
		Reason:  e.Reason,
	})
}

func noWalletConnected() *Error {
	return &Error{Kind: KindNoWalletConnected}
}

func missingField(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

func uploadFailed(stage Stage, err error) *Error {
	return &Error{Kind: KindUploadFailed, Stage: stage, Err: err}
}

func transactionFailed(reason string, err error) *Error {
	return &Error{Kind: KindTransactionFailed, Reason: reason, Err: err}
}

func unknownError(err error) *Error {
	return &Error{Kind: KindUnknown, Err: err}
}
