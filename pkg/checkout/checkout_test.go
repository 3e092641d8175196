package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
)

func TestValidateCourseIDs(t *testing.T) {
	if err := ValidateCourseIDs(nil); !pkgerrors.Is(err, pkgerrors.CodeEmptyCart) {
		t.Fatalf("expected EMPTY_CART, got %v", err)
	}
	if err := ValidateCourseIDs([]uuid.UUID{uuid.Nil}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION for nil id, got %v", err)
	}

	dup := uuid.New()
	err := ValidateCourseIDs([]uuid.UUID{dup, uuid.New(), dup})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION for duplicates, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", typed.Details())
	}
	if ids, _ := details["duplicate_course_ids"].([]uuid.UUID); len(ids) != 1 || ids[0] != dup {
		t.Fatalf("unexpected duplicate ids %v", details["duplicate_course_ids"])
	}

	if err := ValidateCourseIDs([]uuid.UUID{uuid.New(), uuid.New()}); err != nil {
		t.Fatalf("expected distinct ids to pass, got %v", err)
	}
}

func TestOwnedCourses(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	hits := OwnedCourses([]uuid.UUID{a, b}, []uuid.UUID{b, c})
	if len(hits) != 1 || hits[0] != b {
		t.Fatalf("expected only %s, got %v", b, hits)
	}
	if OwnedCourses([]uuid.UUID{a}, nil) != nil {
		t.Fatal("expected nil when nothing is owned")
	}
}

func TestToMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"50":     5000,
		"75.5":   7550,
		"19.999": 2000,
		"0.005":  1,
		"0.004":  0,
		"-10":    0,
	}
	for raw, want := range cases {
		got := ToMinorUnits(decimal.RequireFromString(raw))
		if got != want {
			t.Errorf("ToMinorUnits(%s) = %d, want %d", raw, got, want)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("123.456.789-09"); got != "12345678909" {
		t.Fatalf("unexpected digits %q", got)
	}
	if got := DigitsOnly("abc"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("  Intro  ", 10); got != "Intro" {
		t.Fatalf("expected trimmed title, got %q", got)
	}
	if got := TruncateRunes("Programação", 9); got != "Programaç" {
		t.Fatalf("expected rune-safe cut, got %q", got)
	}
	if got := TruncateRunes("abc", 0); got != "" {
		t.Fatalf("expected empty for zero max, got %q", got)
	}
}

func TestSplitPhone(t *testing.T) {
	cases := []struct {
		raw  string
		want PhoneParts
	}{
		{"(11) 98765-4321", PhoneParts{CountryCode: "55", AreaCode: "11", Number: "987654321"}},
		{"+55 21 3456-7890", PhoneParts{CountryCode: "55", AreaCode: "21", Number: "34567890"}},
		{"+55 (55) 99876-5432", PhoneParts{CountryCode: "55", AreaCode: "55", Number: "998765432"}},
	}
	for _, tc := range cases {
		got, ok := SplitPhone(tc.raw, "55")
		if !ok {
			t.Fatalf("SplitPhone(%q) not ok", tc.raw)
		}
		if got != tc.want {
			t.Fatalf("SplitPhone(%q) = %+v, want %+v", tc.raw, got, tc.want)
		}
	}
	if _, ok := SplitPhone("12", "55"); ok {
		t.Fatal("expected short phone to be rejected")
	}
}
