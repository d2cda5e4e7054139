package errors

// StoreError wraps a candidate or listing store failure. It matches
// ErrStoreFailure under errors.Is and exposes the store error as its cause.
type StoreError struct {
	Op  string
	Err error
}

func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return ErrStoreFailure.Error() + ": " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

func (e *StoreError) Cause() error {
	return e.Err
}
