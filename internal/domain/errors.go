package domain

import (
	"errors"
	"fmt"
	"strconv"
)

type ErrCode string

const (
	CodeValidation          ErrCode = "validation_error"
	CodeUnauthorized        ErrCode = "unauthorized"
	CodeForbidden           ErrCode = "forbidden"
	CodeNotFound            ErrCode = "not_found"
	CodeConflict            ErrCode = "conflict"
	CodeInvalidState        ErrCode = "invalid_state"
	CodeCapacityExceeded    ErrCode = "capacity_exceeded"
	CodeEventNotBookable    ErrCode = "event_not_bookable"
	CodeEventFinished       ErrCode = "event_finished"
	CodeHasReservations     ErrCode = "has_reservations"
	CodeCapacityBelowDemand ErrCode = "capacity_below_demand"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }
func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}
func ErrUnauthorized(msg string) error { return &AppError{Code: CodeUnauthorized, Message: msg} }
func ErrForbidden(msg string) error    { return &AppError{Code: CodeForbidden, Message: msg} }
func ErrNotFound(msg string) error     { return &AppError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) error     { return &AppError{Code: CodeConflict, Message: msg} }
func ErrInvalidState(msg string) error { return &AppError{Code: CodeInvalidState, Message: msg} }

func ErrCapacityExceeded(available, requested int) error {
	return &AppError{
		Code:    CodeCapacityExceeded,
		Message: "not enough seats available",
		Meta: map[string]string{
			"available": strconv.Itoa(available),
			"requested": strconv.Itoa(requested),
		},
	}
}

func ErrEventNotBookable(msg string) error {
	return &AppError{Code: CodeEventNotBookable, Message: msg}
}

func ErrEventFinished(msg string) error {
	return &AppError{Code: CodeEventFinished, Message: msg}
}

func ErrHasReservations(msg string) error {
	return &AppError{Code: CodeHasReservations, Message: msg}
}

func ErrCapacityBelowDemand(active int) error {
	return &AppError{
		Code:    CodeCapacityBelowDemand,
		Message: "capacity cannot be lower than already reserved seats",
		Meta:    map[string]string{"reserved": strconv.Itoa(active)},
	}
}

// CodeOf extracts the business code of err, or "" for plain errors.
func CodeOf(err error) ErrCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// ErrCacheMiss is infrastructure-level, not a business failure.
var ErrCacheMiss = errors.New("cache miss")
