package quiz

import (
	"errors"
	"fmt"
)

// TransportError reports a network or decoding failure of a collaborator.
// It is the only failure a Session surfaces.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsTransportError wraps err unless it already carries a TransportError.
func AsTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
