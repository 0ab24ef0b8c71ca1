// Package errors provides examples of structured error handling in colschema.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeRecursiveType, "type references itself").
		WithDetail("type", "Node").
		WithDetail("field", "Node.children")

	fmt.Println(err.Error())

	// Output:
	// recursive_type: type references itself (field=Node.children, type=Node)
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read footer").
		WithDetail("file", "orders.parquet")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	fmt.Println(err)

	// Output:
	// This is a file error
	// file: failed to read footer (file=orders.parquet): unexpected EOF
}

// ExampleIsType demonstrates checking error types through a wrap chain.
func ExampleIsType() {
	nesting := errors.New(errors.ErrorTypeUnsupportedNesting, "list of lists")
	wrapped := errors.Wrap(nesting, errors.ErrorTypeInternal, "writer setup failed")

	fmt.Printf("Is nesting error: %v\n", errors.IsType(nesting, errors.ErrorTypeUnsupportedNesting))
	fmt.Printf("Wrapped error is internal: %v\n", errors.IsType(wrapped, errors.ErrorTypeInternal))
	fmt.Printf("Outermost type: %s\n", errors.TypeOf(wrapped))

	// Output:
	// Is nesting error: true
	// Wrapped error is internal: true
	// Outermost type: internal
}

// ExampleDetail shows how callers read structured context back.
func ExampleDetail() {
	err := errors.Newf(errors.ErrorTypeUnsupportedType, "cannot map %s", "chan int").
		WithDetail("field", "Event.feed")

	field, ok := errors.Detail(err, "field")
	fmt.Println(field, ok)

	// Output:
	// Event.feed true
}
