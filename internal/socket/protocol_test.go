package socket

import (
	"strings"
	"testing"
)

func TestDecodeRequestDefaultsNilArgs(t *testing.T) {
	req, err := decodeRequest([]byte(`{"channel":"control","command":"switch-active-layout","id":"42"}`))
	if err != nil {
		t.Fatalf("decodeRequest: %v", err)
	}
	if req.Command != "switch-active-layout" || req.ID != "42" {
		t.Fatalf("decodeRequest = %+v, want command=switch-active-layout id=42", req)
	}
	if req.Args == nil {
		t.Fatalf("decodeRequest left Args nil")
	}
}

func TestEncodeResponseRoundTrip(t *testing.T) {
	raw, err := encodeResponse(Response{ID: "1", OK: true})
	if err != nil {
		t.Fatalf("encodeResponse: %v", err)
	}
	if !strings.Contains(string(raw), `"ok":true`) {
		t.Fatalf("encodeResponse output %q missing ok:true", raw)
	}
}
