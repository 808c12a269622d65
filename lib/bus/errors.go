// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/objectbus/lib/names"
)

// Error is an error that has a bus-visible name. Handlers return
// values implementing Error to control the error reply a caller sees.
// Any other error becomes Failed.
type Error interface {
	error
	ErrorName() names.ErrorName
}

// MethodError is the standard Error implementation: an error name and
// a human-readable message. It is also what a client receives when a
// call is answered with an error reply.
//
//	var methodErr *bus.MethodError
//	if errors.As(err, &methodErr) && methodErr.Name == bus.ErrNameUnknownMethod { ... }
type MethodError struct {
	Name    names.ErrorName
	Message string
}

func (e *MethodError) Error() string {
	if e.Name.IsZero() {
		return e.Message
	}
	if e.Message == "" {
		return e.Name.String()
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

// ErrorName implements Error.
func (e *MethodError) ErrorName() names.ErrorName { return e.Name }

// Standard error names. These are fixed literals that satisfy the
// error name grammar, so they use the unchecked constructor.
var (
	ErrNameFailed           = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.Failed")
	ErrNameUnknownMethod    = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.UnknownMethod")
	ErrNameUnknownObject    = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.UnknownObject")
	ErrNameUnknownInterface = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.UnknownInterface")
	ErrNameUnknownProperty  = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.UnknownProperty")
	ErrNamePropertyReadOnly = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.PropertyReadOnly")
	ErrNameInvalidArgs      = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.InvalidArgs")
	ErrNameAccessDenied     = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.AccessDenied")
	ErrNameNotSupported     = names.ErrorNameUnchecked("org.freedesktop.DBus.Error.NotSupported")
)

func newMethodError(name names.ErrorName, message string) *MethodError {
	return &MethodError{Name: name, Message: message}
}

// Failed is the generic failure.
func Failed(message string) *MethodError { return newMethodError(ErrNameFailed, message) }

// UnknownMethod: no interface on the object has the member.
func UnknownMethod(message string) *MethodError {
	return newMethodError(ErrNameUnknownMethod, message)
}

// UnknownObject: nothing is registered at the path.
func UnknownObject(message string) *MethodError {
	return newMethodError(ErrNameUnknownObject, message)
}

// UnknownInterface: the object does not implement the interface.
func UnknownInterface(message string) *MethodError {
	return newMethodError(ErrNameUnknownInterface, message)
}

// UnknownProperty: the interface has no such property.
func UnknownProperty(message string) *MethodError {
	return newMethodError(ErrNameUnknownProperty, message)
}

// PropertyReadOnly: Set on a property that cannot be written.
func PropertyReadOnly(message string) *MethodError {
	return newMethodError(ErrNamePropertyReadOnly, message)
}

// InvalidArgs: the arguments do not match what the member expects.
func InvalidArgs(message string) *MethodError {
	return newMethodError(ErrNameInvalidArgs, message)
}

// AccessDenied: the caller is not allowed to perform the operation.
func AccessDenied(message string) *MethodError {
	return newMethodError(ErrNameAccessDenied, message)
}

// NotSupported: the operation exists but is not available.
func NotSupported(message string) *MethodError {
	return newMethodError(ErrNameNotSupported, message)
}

// AsError converts err into a bus Error. If err (or anything it wraps)
// already is one with a name, that value is returned. Otherwise the
// result is a Failed error carrying err's text, since an error reply
// without a name cannot be sent. AsError(nil) returns nil.
func AsError(err error) Error {
	if err == nil {
		return nil
	}
	var busErr Error
	if errors.As(err, &busErr) && !busErr.ErrorName().IsZero() {
		return busErr
	}
	return Failed(err.Error())
}
