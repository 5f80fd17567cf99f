package model

import "testing"

func TestSeverityDerivation(t *testing.T) {
	cases := []struct {
		status int
		want   Severity
	}{
		{503, SeverityCritical},
		{500, SeverityCritical},
		{404, SeverityHigh},
		{400, SeverityHigh},
		{301, SeverityMedium},
		{300, SeverityMedium},
		{200, SeverityLow},
		{0, SeverityLow},
	}
	for _, tc := range cases {
		sig := Signal{StatusCode: tc.status}
		if got := sig.Severity(); got != tc.want {
			t.Fatalf("Severity(%d) = %s, want %s", tc.status, got, tc.want)
		}
	}
}
