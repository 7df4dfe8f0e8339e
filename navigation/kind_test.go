package navigation

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{in: "try_all_portal", want: TryAllPortal},
		{in: "Try-All-Surface", want: TryAllSurface},
		{in: " surface_array ", want: SurfaceArray},
		{in: "try_all", want: TryAll},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseKind(%q) = %s, want %s", tt.in, got, tt.want)
		}
		if got.String() != kindNames[tt.want] {
			t.Fatalf("String() = %q", got.String())
		}
	}
	if _, err := ParseKind("kd_tree"); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("err = %v, want ErrUnknownPolicy", err)
	}
}

func TestKindValidity(t *testing.T) {
	if Kind(0).Valid() || Kind(5).Valid() {
		t.Fatalf("out-of-set kinds reported valid")
	}
	if Kind(7).String() != "Kind(7)" {
		t.Fatalf("String() = %q", Kind(7).String())
	}
}

func TestFailureReason(t *testing.T) {
	if got := failureReason(errors.New("boom")); got != "other" {
		t.Fatalf("failureReason = %q, want other", got)
	}
	if got := failureReason(ErrEmptyFactory); got != "empty_factory" {
		t.Fatalf("failureReason = %q, want empty_factory", got)
	}
}
