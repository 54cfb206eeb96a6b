//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"

	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
)

func TestErrorResponses(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown route", http.MethodGet, "/nowhere", nil, http.StatusNotFound, httperrors.ErrCodeNotFound},
		{"wrong method", http.MethodPut, "/categories", nil, http.StatusMethodNotAllowed, httperrors.ErrCodeMethodNotAllowed},
		{"invalid page", http.MethodGet, "/questions?page=0", nil, http.StatusBadRequest, httperrors.ErrCodeInvalidPage},
		{"missing category", http.MethodGet, "/categories/999999/questions", nil, http.StatusNotFound, httperrors.ErrCodeCategoryNotFound},
		{"missing search term", http.MethodPost, "/questions/search", map[string]string{}, http.StatusUnprocessableEntity, httperrors.ErrCodeMissingField},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var errResp httperrors.ErrorResponse
			resp := doJSON(t, tc.method, baseURL()+tc.path, "", tc.body, &errResp)

			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d (%+v)", tc.status, resp.StatusCode, errResp)
			}
			if errResp.Success {
				t.Fatal("success must be false on errors")
			}
			if errResp.Error != tc.status {
				t.Fatalf("error field = %d, want %d", errResp.Error, tc.status)
			}
			if errResp.Code != tc.code {
				t.Fatalf("code = %q, want %q", errResp.Code, tc.code)
			}
		})
	}
}
