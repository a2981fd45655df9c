package pointing

import "fmt"

// BusError is a transport-level read or write failure.
type BusError struct {
	Op  string
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s failed: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// IdentityError reports identification bytes that do not match the expected
// device constants. It is fatal to bring-up and never retried.
type IdentityError struct {
	Product      byte
	Revision     byte
	WantProduct  byte
	WantRevision byte
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("unexpected device identity %#02x/%#02x (want %#02x/%#02x)",
		e.Product, e.Revision, e.WantProduct, e.WantRevision)
}
