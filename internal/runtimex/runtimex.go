// Package runtimex contains runtime extensions. We use the helpers in
// this package to turn conditions that can only occur because of
// programmer errors into panics, rather than returning errors that
// every caller would need to handle.
package runtimex

import "fmt"

// PanicOnError calls panic() if err is not nil.
func PanicOnError(err error, message string) {
	if err != nil {
		panic(fmt.Errorf("%s: %w", message, err))
	}
}

// PanicIfFalse calls panic if assertion is false.
func PanicIfFalse(assertion bool, message string) {
	if !assertion {
		panic(message)
	}
}

// PanicIfTrue calls panic if assertion is true.
func PanicIfTrue(assertion bool, message string) {
	PanicIfFalse(!assertion, message)
}

// PanicIfNil calls panic if the given interface is nil.
func PanicIfNil(v interface{}, message string) {
	PanicIfTrue(v == nil, message)
}

// Assert calls panic with the given message if the given statement is false.
func Assert(statement bool, message string) {
	PanicIfFalse(statement, message)
}

// Try0 calls [PanicOnError] if err is not nil.
func Try0(err error) {
	PanicOnError(err, "Try0")
}

// Try1 is like [Try0] but for functions returning a value and an error.
func Try1[Type any](value Type, err error) Type {
	Try0(err)
	return value
}
