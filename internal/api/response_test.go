package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/revittco/storeadmin/internal/catalog"
	"github.com/revittco/storeadmin/internal/validate"
)

func TestDecodeJSONDraft(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"product draft", `{"title":"Lamp","price":"12.50","category":"home"}`, false},
		{"numeric price", `{"title":"Lamp","price":12.5}`, false},
		{"unknown field", `{"title":"Lamp","rating":5}`, true},
		{"two values", `{"title":"a"}{"title":"b"}`, true},
		{"empty body", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(tt.body))
			var d catalog.ProductDraft
			err := decodeJSON(req, &d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && d.Title != "Lamp" {
				t.Fatalf("title = %q", d.Title)
			}
		})
	}
}

func TestWriteValidationError(t *testing.T) {
	t.Run("field errors", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeValidationError(rec, &validate.Errors{Fields: []validate.FieldError{
			{Field: "title", Message: "Title is required"},
			{Field: "price", Message: "Price must be a number"},
		}})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
		var body errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Fields) != 2 || body.Fields[1].Field != "price" {
			t.Fatalf("fields = %+v", body.Fields)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeValidationError(rec, errors.New("bad draft"))
		var body errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Details != "bad draft" || len(body.Fields) != 0 {
			t.Fatalf("body = %+v", body)
		}
	})
}
