package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bilancio/internal/core"
)

func parse(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := parse(t, "application/json", `{"category_id": 123, "description": "  pizza \u0007 ", "amount": "42.50", "note": null}`)

	if !p.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := p.Get("category_id"); id != "123" {
		t.Errorf("Get('category_id') = %q, want '123'", id)
	}
	if desc := p.Get("description"); desc != "pizza" {
		t.Errorf("Get('description') = %q, want 'pizza'", desc)
	}
	if amount := p.Get("amount"); amount != "42.50" {
		t.Errorf("Get('amount') = %q, want '42.50'", amount)
	}
	if p.Has("note") {
		t.Error("null fields count as absent")
	}
	if !p.Has("amount") {
		t.Error("Has('amount') = false")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	p := parse(t, "application/x-www-form-urlencoded", "type=IN&name=form+test&amount=100")

	if p.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if typ := p.Get("type"); typ != "IN" {
		t.Errorf("Get('type') = %q, want 'IN'", typ)
	}
	if name := p.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	p := parse(t, "", "")
	if val := p.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"amount":`))
	req.Header.Set("Content-Type", "application/json")
	err := NewRequestBodyParser(httptest.NewRecorder(), req).Parse()
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Parse() error = %v, want validation error", err)
	}
}

func TestRequestBodyParser_TooLarge(t *testing.T) {
	body := "description=" + strings.Repeat("x", maxBodyBytes+1)
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	err := NewRequestBodyParser(httptest.NewRecorder(), req).Parse()
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("Parse() error = %v, want validation error", err)
	}
}

func TestParseOptionalID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantNil bool
		wantErr bool
	}{
		{raw: "", wantNil: true},
		{raw: "7", want: 7},
		{raw: "0", wantErr: true},
		{raw: "-3", wantErr: true},
		{raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseOptionalID(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil != (got == nil) {
				t.Fatalf("got %v, wantNil %v", got, tt.wantNil)
			}
			if got != nil && *got != tt.want {
				t.Errorf("got %d, want %d", *got, tt.want)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		n, page     int
		lo, hi, max int
	}{
		{n: 0, page: 1, lo: 0, hi: 0, max: 1},
		{n: 45, page: 1, lo: 0, hi: 20, max: 3},
		{n: 45, page: 3, lo: 40, hi: 45, max: 3},
		{n: 45, page: 9, lo: 45, hi: 45, max: 3},
	}
	for _, tt := range tests {
		lo, hi, meta := paginate(tt.n, tt.page)
		if lo != tt.lo || hi != tt.hi || meta.TotalPages != tt.max || meta.Total != tt.n {
			t.Errorf("paginate(%d, %d) = %d, %d, %+v", tt.n, tt.page, lo, hi, meta)
		}
	}
}
