/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package someiperr implements the single result enumeration that every
// fallible SOME/IP operation in this module returns through.
package someiperr

import "fmt"

// Kind is the uniform result enumeration driving every fallible operation.
type Kind int

// Result kinds, as enumerated by the error handling design.
const (
	Success Kind = iota
	InvalidArgument
	NotInitialized
	MalformedMessage
	WrongProtocolVersion
	WrongInterfaceVersion
	Timeout
	NotReachable
	NotReady
	UnknownService
	UnknownMethod
)

// kindToString is the String() backing map, following the
// MessageTypeToString convention.
var kindToString = map[Kind]string{
	Success:               "SUCCESS",
	InvalidArgument:       "INVALID_ARGUMENT",
	NotInitialized:        "NOT_INITIALIZED",
	MalformedMessage:      "E_MALFORMED_MESSAGE",
	WrongProtocolVersion:  "E_WRONG_PROTOCOL_VERSION",
	WrongInterfaceVersion: "E_WRONG_INTERFACE_VERSION",
	Timeout:               "TIMEOUT",
	NotReachable:          "NOT_REACHABLE",
	NotReady:              "NOT_READY",
	UnknownService:        "E_UNKNOWN_SERVICE",
	UnknownMethod:         "E_UNKNOWN_METHOD",
}

func (k Kind) String() string {
	if s, ok := kindToString[k]; ok {
		return s
	}
	return "UNKNOWN_KIND"
}

// Error wraps a Kind with an optional cause, so call sites can both
// switch on the Kind and traverse the wrapped chain with errors.Is/As.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error of the given Kind, formatting a message the
// same way fmt.Errorf does.
func New(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

// Is reports whether err carries the given Kind, walking the chain via
// errors.As semantics without requiring the caller to import errors.
func Is(err error, k Kind) bool {
	var se *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			se = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return se != nil && se.Kind == k
}
