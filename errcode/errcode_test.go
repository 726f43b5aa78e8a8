package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"addressing":     Addressing,
		"type_mismatch":  Type,
		"configuration":  Configuration,
		"invalid_params": InvalidParams,
		"unsupported":    Unsupported,
		"timeout":        Timeout,
		"error":          Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("mboard 0: %w", Addressingf("unknown key %s", "name"))
	if !errors.Is(err, Addressing) {
		t.Fatalf("errors.Is(%v, Addressing) = false", err)
	}
	if errors.Is(err, Type) {
		t.Fatal("addressing error must not match Type")
	}
	if Of(err) != Addressing {
		t.Fatalf("Of = %q", Of(err))
	}
}

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to OK")
	}
	if Of(Timeout) != Timeout {
		t.Fatal("bare code should map to itself")
	}
	if Of(fmt.Errorf("x: %w", Configuration)) != Configuration {
		t.Fatal("wrapped bare code should be found")
	}
	if Of(errors.New("boom")) != Error {
		t.Fatal("foreign error should map to Error")
	}
}

func TestEMessage(t *testing.T) {
	e := Wrap(Configuration, "set_time_unknown_pps", errors.New("no pps"))
	if got := e.Error(); got != "set_time_unknown_pps: configuration: no pps" {
		t.Fatalf("message = %q", got)
	}
	if errors.Unwrap(e) == nil {
		t.Fatal("cause lost")
	}
}
