package services

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindBusinessRule
	KindUnauthorized
	KindForbidden
	KindConflict
	KindTransaction
)

const (
	CodeValidationFailed   = "ValidationFailed"
	CodeMalformedLineItem  = "MalformedLineItem"
	CodeNotFound           = "NotFound"
	CodeInvalidTable       = "InvalidTable"
	CodeUnavailableItems   = "UnavailableItems"
	CodeInsufficientStock  = "InsufficientStock"
	CodeInvalidTransition  = "InvalidTransition"
	CodeUnauthorized       = "Unauthorized"
	CodeForbidden          = "Forbidden"
	CodeConflict           = "Conflict"
	CodeTransactionFailure = "TransactionFailure"
)

// Error is the typed failure every service operation returns. DetailKey names
// the response field Details is rendered under.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	DetailKey string
	Details   interface{}
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidationFailed   = &Error{Kind: KindValidation, Code: CodeValidationFailed}
	ErrMalformedLineItem  = &Error{Kind: KindValidation, Code: CodeMalformedLineItem}
	ErrNotFound           = &Error{Kind: KindNotFound, Code: CodeNotFound}
	ErrInvalidTable       = &Error{Kind: KindBusinessRule, Code: CodeInvalidTable}
	ErrUnavailableItems   = &Error{Kind: KindBusinessRule, Code: CodeUnavailableItems}
	ErrInsufficientStock  = &Error{Kind: KindBusinessRule, Code: CodeInsufficientStock}
	ErrInvalidTransition  = &Error{Kind: KindBusinessRule, Code: CodeInvalidTransition}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Code: CodeUnauthorized}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: CodeForbidden}
	ErrConflict           = &Error{Kind: KindConflict, Code: CodeConflict}
	ErrTransactionFailure = &Error{Kind: KindTransaction, Code: CodeTransactionFailure}
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type LineItemError struct {
	Index  int    `json:"index"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type StockShortage struct {
	MenuID    string `json:"menu_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func validationFailed(message string, details []FieldError) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationFailed, Message: message, DetailKey: "details", Details: details}
}

func malformedLineItems(details []LineItemError) *Error {
	return &Error{Kind: KindValidation, Code: CodeMalformedLineItem, Message: "Invalid cart items", DetailKey: "invalid_items", Details: details}
}

func notFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf("%s not found", what), DetailKey: "id", Details: id}
}

func invalidTable(tableID string) *Error {
	return &Error{Kind: KindBusinessRule, Code: CodeInvalidTable, Message: "Table not found", DetailKey: "table_id", Details: tableID}
}

func unavailableItems(ids []string) *Error {
	return &Error{Kind: KindBusinessRule, Code: CodeUnavailableItems, Message: "Some menu items are not available", DetailKey: "unavailable_items", Details: ids}
}

func insufficientStock(shortages []StockShortage) *Error {
	return &Error{Kind: KindBusinessRule, Code: CodeInsufficientStock, Message: "Insufficient stock", DetailKey: "insufficient_stock", Details: shortages}
}

func invalidTransition(message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: CodeInvalidTransition, Message: message}
}

func conflict(message string, err error) *Error {
	return &Error{Kind: KindConflict, Code: CodeConflict, Message: message, Err: err}
}

func transactionFailure(message string, err error) *Error {
	return &Error{Kind: KindTransaction, Code: CodeTransactionFailure, Message: message, Err: err}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// BadRequest is used by callers that fail before a service is reached, e.g.
// on an unparsable body.
func BadRequest(message string, err error) *Error {
	e := validationFailed(message, []FieldError{{Field: "body", Message: err.Error()}})
	e.Err = err
	return e
}

// AsError extracts the typed error; anything else is reported as a
// transaction failure.
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return transactionFailure("Internal error", err)
}
