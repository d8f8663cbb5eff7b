package wire

import (
	"errors"
	"testing"
)

func TestResultEnvelopes(t *testing.T) {
	if got := Ok(nil); got != `{"Ok":null}` {
		t.Fatalf("unexpected unit result %s", got)
	}
	if got := Ok(`{"id":1}`); got != `{"Ok":"{\"id\":1}"}` {
		t.Fatalf("unexpected string result %s", got)
	}
	if got := Err(errors.New(`bad "thing"`)); got != `{"Err":"bad \"thing\""}` {
		t.Fatalf("unexpected error result %s", got)
	}
}

func TestDecodeResult(t *testing.T) {
	var serialized string
	if err := DecodeResult(Ok("payload"), &serialized); err != nil {
		t.Fatalf("decode ok: %v", err)
	}
	if serialized != "payload" {
		t.Fatalf("expected payload, got %q", serialized)
	}
	if err := DecodeResult(`{"Ok":null}`, nil); err != nil {
		t.Fatalf("decode unit: %v", err)
	}

	err := DecodeResult(`{"Err":"Feeding not found"}`, nil)
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != "Feeding not found" {
		t.Fatalf("expected remote error, got %v", err)
	}

	for _, payload := range []string{"OK", `{}`, `{"Err":3}`} {
		if err := DecodeResult(payload, nil); !errors.Is(err, ErrMalformedReply) {
			t.Fatalf("expected malformed reply for %q, got %v", payload, err)
		}
	}
}

func TestOptionAndList(t *testing.T) {
	if value, ok, err := DecodeOption(None()); err != nil || ok || value != "" {
		t.Fatalf("unexpected none decode %q %v %v", value, ok, err)
	}
	value, ok, err := DecodeOption(Some(`{"id":2}`))
	if err != nil || !ok || value != `{"id":2}` {
		t.Fatalf("unexpected some decode %q %v %v", value, ok, err)
	}

	if got := List(nil); got != "[]" {
		t.Fatalf("expected empty list, got %s", got)
	}
	items, err := DecodeList(List([]string{"a", `{"b":1}`}))
	if err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 2 || items[1] != `{"b":1}` {
		t.Fatalf("unexpected list %v", items)
	}
}
