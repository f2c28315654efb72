package sdb

import (
	"errors"
	"testing"
)

func TestErrorUnwrapExposesUnderlyingCause(t *testing.T) {
	cause := errors.New("ptrace: no such process")
	err := ioErrorf(cause, "could not read memory at %s", VirtAddr(0x1000))

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find the wrapped cause")
	}
	if got := err.(*Error).Kind; got != KindIO {
		t.Errorf("Kind = %v, want %v", got, KindIO)
	}
}

func TestConstructorsSetExpectedKind(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{protocolErrorf("bad address"), KindProtocol},
		{stateErrorf("process is not stopped"), KindState},
		{resourceExhaustedErrorf("no free hardware debug register"), KindResourceExhausted},
	}
	for _, c := range cases {
		sdbErr, ok := c.err.(*Error)
		if !ok {
			t.Fatalf("%v is %T, want *Error", c.err, c.err)
		}
		if sdbErr.Kind != c.want {
			t.Errorf("Kind = %v, want %v", sdbErr.Kind, c.want)
		}
		if sdbErr.Unwrap() != nil {
			t.Errorf("Unwrap() = %v, want nil for a constructor with no underlying cause", sdbErr.Unwrap())
		}
	}
}
