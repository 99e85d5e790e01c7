package authapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		max     int64
		wantErr error
	}{
		{name: "ok", body: `{"email":"a@x.com","password":"p"}`, max: 1 << 10},
		{name: "empty", body: "", max: 1 << 10, wantErr: errEmptyBody},
		{name: "too large", body: `{"email":"` + strings.Repeat("a", 64) + `"}`, max: 16, wantErr: errBodyTooLarge},
		{name: "trailing", body: `{"email":"a@x.com"} {}`, max: 1 << 10, wantErr: errTrailingData},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tc.body))
			var dst loginRequest
			err := decodeJSON(httptest.NewRecorder(), r, tc.max, &dst)
			if tc.wantErr == nil {
				require.NoError(t, err)
				require.Equal(t, "a@x.com", dst.Email)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestWriteDecodeError(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	writeDecodeError(rr, errBodyTooLarge)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Equal(t, "request_too_large", decodeError(t, rr).Code)

	rr = httptest.NewRecorder()
	writeDecodeError(rr, errTrailingData)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_json", decodeError(t, rr).Code)
}
