package errorx

import (
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
)

func TestErrWrapper(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := &ErrWrapper{Failure: FailureDNSNXDOMAINError}
		if err.Error() != FailureDNSNXDOMAINError {
			t.Fatal("invalid return value")
		}
	})

	t.Run("Unwrap", func(t *testing.T) {
		err := &ErrWrapper{
			Failure:    FailureEOFError,
			WrappedErr: io.EOF,
		}
		if !errors.Is(err, io.EOF) {
			t.Fatal("cannot unwrap error")
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		wrappedErr := &ErrWrapper{
			Failure:    FailureEOFError,
			WrappedErr: io.EOF,
		}
		data, err := json.Marshal(wrappedErr)
		if err != nil {
			t.Fatal(err)
		}
		s := string(data)
		if s != "\""+FailureEOFError+"\"" {
			t.Fatal("invalid serialization", s)
		}
	})
}

func TestNewErrWrapper(t *testing.T) {
	t.Run("panics if the classifier is nil", func(t *testing.T) {
		recovered := &atomic.Int64{}
		func() {
			defer func() {
				if recover() != nil {
					recovered.Add(1)
				}
			}()
			NewErrWrapper(nil, CloseOperation, io.EOF)
		}()
		if recovered.Load() != 1 {
			t.Fatal("did not panic")
		}
	})

	t.Run("panics if the operation is empty", func(t *testing.T) {
		recovered := &atomic.Int64{}
		func() {
			defer func() {
				if recover() != nil {
					recovered.Add(1)
				}
			}()
			NewErrWrapper(ClassifyGenericError, "", io.EOF)
		}()
		if recovered.Load() != 1 {
			t.Fatal("did not panic")
		}
	})

	t.Run("panics if the error is nil", func(t *testing.T) {
		recovered := &atomic.Int64{}
		func() {
			defer func() {
				if recover() != nil {
					recovered.Add(1)
				}
			}()
			NewErrWrapper(ClassifyGenericError, CloseOperation, nil)
		}()
		if recovered.Load() != 1 {
			t.Fatal("did not panic")
		}
	})

	t.Run("otherwise, works as intended", func(t *testing.T) {
		ew := NewErrWrapper(ClassifyGenericError, CloseOperation, io.EOF)
		if ew.Failure != FailureEOFError {
			t.Fatal("unexpected failure")
		}
		if ew.Operation != CloseOperation {
			t.Fatal("unexpected operation")
		}
		if ew.WrappedErr != io.EOF {
			t.Fatal("unexpected WrappedErr")
		}
	})

	t.Run("wrapping a wrapped error keeps the major operation", func(t *testing.T) {
		child := NewErrWrapper(ClassifyGenericError, ConnectOperation, io.EOF)
		parent := NewErrWrapper(ClassifyGenericError, TopLevelOperation, child)
		if parent.Failure != FailureEOFError {
			t.Fatal("unexpected failure")
		}
		if parent.Operation != ConnectOperation {
			t.Fatal("should have kept the child's major operation")
		}
		if !errors.Is(parent, io.EOF) {
			t.Fatal("cannot unwrap to the original error")
		}
	})

	t.Run("wrapping a minor operation does not preserve it", func(t *testing.T) {
		child := NewErrWrapper(ClassifyGenericError, ReadOperation, io.EOF)
		parent := NewErrWrapper(ClassifyGenericError, TopLevelOperation, child)
		if parent.Operation != TopLevelOperation {
			t.Fatal("should have used the parent operation")
		}
	})
}

func TestMaybeNewErrWrapper(t *testing.T) {
	t.Run("with nil error", func(t *testing.T) {
		if err := MaybeNewErrWrapper(ClassifyGenericError, ReadOperation, nil); err != nil {
			t.Fatal("expected nil here")
		}
	})

	t.Run("with non-nil error", func(t *testing.T) {
		err := MaybeNewErrWrapper(ClassifyGenericError, ReadOperation, io.EOF)
		if err == nil {
			t.Fatal("expected non-nil here")
		}
		var ew *ErrWrapper
		if !errors.As(err, &ew) {
			t.Fatal("cannot convert to ErrWrapper")
		}
		if ew.Failure != FailureEOFError {
			t.Fatal("unexpected failure")
		}
	})
}

func TestNewTopLevelGenericErrWrapper(t *testing.T) {
	out := NewTopLevelGenericErrWrapper(io.EOF)
	if out.Failure != FailureEOFError {
		t.Fatal("invalid failure")
	}
	if out.Operation != TopLevelOperation {
		t.Fatal("invalid operation")
	}
	if !errors.Is(out, io.EOF) {
		t.Fatal("invalid underlying error using errors.Is")
	}
	if !errors.Is(out.WrappedErr, io.EOF) {
		t.Fatal("invalid WrappedErr")
	}
}
