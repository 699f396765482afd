package cacheerr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{New(KindInvalidArgument, "bad ttl"), KindInvalidArgument},
		{New(KindNotFound, "missing"), KindNotFound},
		{New(KindAlreadyExists, "collision"), KindAlreadyExists},
		{Wrap(errors.New("dial tcp: refused"), KindStoreUnavailable, "store unreachable"), KindStoreUnavailable},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}

	if !IsNotFound(New(KindNotFound, "x")) {
		t.Error("IsNotFound returned false for NotFound error")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("IsNotFound returned true for unclassified error")
	}
}

func TestKindOfWrapped(t *testing.T) {
	inner := New(KindAlreadyExists, "filter exists")
	outer := fmt.Errorf("create filter: %w", inner)

	if KindOf(outer) != KindAlreadyExists {
		t.Errorf("KindOf through fmt wrapping = %v, want AlreadyExists", KindOf(outer))
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, KindStoreUnavailable, "store unreachable")

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not find wrapped cause")
	}
	if err.Error() != "store unreachable: connection reset" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidArgument, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindAlreadyExists, http.StatusConflict},
		{KindStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		if got := New(tt.kind, "x").HTTPStatus(); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, New(KindNotFound, "no such filter"), "req-1")

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["kind"] != "not_found" {
		t.Errorf("kind = %q, want not_found", body["kind"])
	}
	if body["error"] != "no such filter" {
		t.Errorf("error = %q", body["error"])
	}
	if body["request_id"] != "req-1" {
		t.Errorf("request_id = %q", body["request_id"])
	}
}

func TestWriteJSONUnclassified(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, errors.New("secret internal detail"), "")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if got := rec.Body.String(); !json.Valid([]byte(got)) {
		t.Errorf("body is not JSON: %s", got)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] == "secret internal detail" {
		t.Error("unclassified error message leaked to client")
	}
}
