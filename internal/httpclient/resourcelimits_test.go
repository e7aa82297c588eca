package httpclient

import (
	"testing"
	"time"
)

func TestParseResourceLimitsMatches(t *testing.T) {
	body := "Page requests today: 1,234 blah CPU blah >12.3 seconds blah 600.0 seconds blah 04:17 blah"
	limits, ok := ParseResourceLimits(body)
	if !ok {
		t.Fatal("expected match")
	}
	if got, want := limits.CPUTenthsSpent, uint64(123); got != want {
		t.Errorf("CPUTenthsSpent = %d, want %d", got, want)
	}
	wantSeconds := 4*60 + 17
	gotSeconds := int(time.Until(limits.ResetsAt).Round(time.Second).Seconds())
	if gotSeconds < wantSeconds-1 || gotSeconds > wantSeconds+1 {
		t.Errorf("ResetsAt ~%ds from now, want ~%ds", gotSeconds, wantSeconds)
	}
}

func TestParseResourceLimitsNoMatch(t *testing.T) {
	_, ok := ParseResourceLimits("<html>nothing interesting here</html>")
	if ok {
		t.Fatal("expected no match for unrelated body")
	}
}

func TestParseResourceLimitsPartialDoesNotMatch(t *testing.T) {
	_, ok := ParseResourceLimits("Page requests 1,234 but missing the rest of the pattern")
	if ok {
		t.Fatal("expected no match for truncated body")
	}
}
