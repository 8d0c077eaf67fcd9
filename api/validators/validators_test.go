package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
)

type quantityInput struct {
	Quantity *int   `json:"quantity" validate:"required,gte=0"`
	Note     string `json:"note" validate:"max=10"`
}

func decode(t *testing.T, body string) (quantityInput, error) {
	t.Helper()
	var dest quantityInput
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	return dest, err
}

func TestDecodeJSONBody(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		body    string
		wantErr bool
		field   string
	}{
		{name: "valid", body: `{"quantity":3}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"quantity":1,"price":2}`, wantErr: true},
		{name: "trailing object", body: `{"quantity":1}{"quantity":2}`, wantErr: true},
		{name: "missing required", body: `{}`, wantErr: true, field: "quantity"},
		{name: "negative", body: `{"quantity":-1}`, wantErr: true, field: "quantity"},
		{name: "too long note", body: `{"quantity":1,"note":"abcdefghijk"}`, wantErr: true, field: "note"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := decode(t, tc.body)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if tc.field == "" {
				return
			}
			details, ok := pkgerrors.As(err).Details().(map[string]string)
			if !ok {
				t.Fatalf("expected field details, got %#v", pkgerrors.As(err).Details())
			}
			if _, ok := details[tc.field]; !ok {
				t.Fatalf("expected detail for %s, got %v", tc.field, details)
			}
		})
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	body := `{"note":"` + strings.Repeat("x", int(MaxBodyBytes)) + `"}`
	_, err := decode(t, body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "request body too large" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	if got := SanitizeString("  12 MG Road,\n\tSector 18  ", 0); got != "12 MG Road, Sector 18" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
	if got := SanitizeString("नोएडा सेक्टर", 5); got != "नोएडा" {
		t.Fatalf("expected rune safe truncation, got %q", got)
	}
}

func TestParseQueryFloat(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?lat=28.61&lng=abc&far=200", nil)

	lat, err := ParseQueryFloat(req, "lat", -90, 90)
	if err != nil || lat == nil || *lat != 28.61 {
		t.Fatalf("unexpected lat %v err %v", lat, err)
	}
	missing, err := ParseQueryFloat(req, "missing", -90, 90)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for absent parameter, got %v %v", missing, err)
	}
	if _, err := ParseQueryFloat(req, "lng", -180, 180); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non numeric, got %v", err)
	}
	if _, err := ParseQueryFloat(req, "far", -90, 90); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out of range, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]string{
		"Bearer abc": "abc",
		"bearer  xy": "xy",
		"plain":      "plain",
		"":           "",
	} {
		if got := BearerToken(raw); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", raw, got, want)
		}
	}
}
