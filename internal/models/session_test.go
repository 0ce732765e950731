package models

import (
	"testing"
	"time"
)

func TestLoginSessionExpired(t *testing.T) {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future", now.Add(time.Minute), false},
		{"exact", now, false},
		{"past", now.Add(-time.Second), true},
	}
	for _, tc := range cases {
		s := &LoginSession{ExpiresAt: tc.expiresAt}
		if got := s.Expired(now); got != tc.want {
			t.Fatalf("%s: Expired = %v, want %v", tc.name, got, tc.want)
		}
	}
}
