package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestQueryIntPtrDefault(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"absent falls back to page size", "/photos?startIndex=0", defaultPageNb},
		{"invalid falls back to page size", "/photos?nb=abc", defaultPageNb},
		{"explicit value wins", "/photos?nb=20", 20},
		{"explicit zero is honored", "/photos?nb=0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := queryIntPtrDefault(r, "nb", defaultPageNb)
			if got == nil {
				t.Fatal("expected a bound, got nil")
			}
			if *got != tt.want {
				t.Errorf("got %d, want %d", *got, tt.want)
			}
		})
	}
}

func TestQueryIntPtrAbsentMeansUnbounded(t *testing.T) {
	r := httptest.NewRequest("GET", "/photos", nil)
	if got := queryIntPtr(r, "nb"); got != nil {
		t.Errorf("expected nil for absent parameter, got %d", *got)
	}
}
