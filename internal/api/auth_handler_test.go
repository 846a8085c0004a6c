package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/revittco/storeadmin/internal/identity"
)

func TestWriteIdentityError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{identity.ErrInvalidEmail, http.StatusBadRequest},
		{identity.ErrInvalidState, http.StatusBadRequest},
		{identity.ErrInvalidCredentials, http.StatusUnauthorized},
		{identity.ErrEmailUnverified, http.StatusUnauthorized},
		{fmt.Errorf("callback: %w", identity.ErrEmailUnverified), http.StatusUnauthorized},
		{identity.ErrEmailTaken, http.StatusConflict},
		{identity.ErrAccountNotLinked, http.StatusConflict},
		{identity.ErrGoogleDisabled, http.StatusNotFound},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeIdentityError(rec, tt.err)
		if rec.Code != tt.want {
			t.Fatalf("%v: status = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}
