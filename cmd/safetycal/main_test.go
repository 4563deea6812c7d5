package main

import (
	"testing"
	"time"
)

func TestBaseURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8080": "http://127.0.0.1:8080",
		":9090":          "http://127.0.0.1:9090",
		"0.0.0.0:80":     "http://127.0.0.1:80",
		"[::]:8080":      "http://127.0.0.1:8080",
		"calendar.local": "http://calendar.local",
	}
	for in, want := range tests {
		if got := baseURL(in); got != want {
			t.Errorf("baseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestImportWindow(t *testing.T) {
	now := time.Date(2024, time.January, 17, 12, 0, 0, 0, time.UTC)
	from, to := importWindow(now)
	if from.String() != "2023-12-01" {
		t.Errorf("from = %s, want 2023-12-01", from)
	}
	if to.String() != "2024-12-31" {
		t.Errorf("to = %s, want 2024-12-31", to)
	}
}
