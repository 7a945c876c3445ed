package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind   domain.Kind
		status int
	}{
		{domain.KindValidation, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindConflict, http.StatusConflict},
		{domain.KindProcess, http.StatusBadGateway},
		{domain.KindProtocol, http.StatusBadGateway},
		{domain.KindIO, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, domain.Errorf(tc.kind, "boom"))
		if rec.Code != tc.status {
			t.Errorf("kind %v: status = %d, want %d", tc.kind, rec.Code, tc.status)
		}

		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("kind %v: bad body: %v", tc.kind, err)
		}
		if body.Error != "boom" || body.Kind != tc.kind.String() {
			t.Errorf("kind %v: body = %+v", tc.kind, body)
		}
	}
}

func TestWriteErrorUnknownKind(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("plain"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	mux := http.NewServeMux()
	var got uuid.UUID
	var gotErr error
	mux.HandleFunc("GET /instances/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = pathID(r, "id")
	})

	req := httptest.NewRequest(http.MethodGet, "/instances/"+id.String(), nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if gotErr != nil || got != id {
		t.Errorf("pathID = %v, %v", got, gotErr)
	}

	req = httptest.NewRequest(http.MethodGet, "/instances/not-a-uuid", nil)
	mux.ServeHTTP(httptest.NewRecorder(), req)
	if domain.KindOf(gotErr) != domain.KindValidation {
		t.Errorf("kind = %v, want validation", domain.KindOf(gotErr))
	}
}
