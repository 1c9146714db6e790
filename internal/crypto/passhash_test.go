package crypto

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/shopworks/storeauth/internal/errs"
)

func TestHashPassword_EmptyRejected(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want ErrValidation for empty password, got %v", err)
	}
}

func TestHashPassword_CostAndVerify(t *testing.T) {
	t.Parallel()

	digest, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost != hashCost {
		t.Fatalf("cost=%d, want=%d", cost, hashCost)
	}

	if !VerifyPassword("Sup3rSecret", digest) {
		t.Fatalf("VerifyPassword: expected true for correct password")
	}
	if VerifyPassword("Sup3rSecret!", digest) {
		t.Fatalf("VerifyPassword: expected false for wrong password")
	}
}

func TestVerifyPassword_MalformedDigest(t *testing.T) {
	t.Parallel()

	if VerifyPassword("whatever", "not-a-bcrypt-digest") {
		t.Fatalf("VerifyPassword: expected false for malformed digest")
	}
	if VerifyPassword("whatever", "") {
		t.Fatalf("VerifyPassword: expected false for empty digest")
	}
}

func TestCheckStrength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		password string
		want     int
		contains string
	}{
		{"ok", "Abcdefg1", 0, ""},
		{"short and weak", "short", 3, "at least 8 characters"},
		{"no uppercase", "abcdefg1", 1, "uppercase"},
		{"no lowercase", "ABCDEFG1", 1, "lowercase"},
		{"no digit", "Abcdefgh", 1, "digit"},
		{"too long", strings.Repeat("Aa1", 24) + "x", 1, "72 bytes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckStrength(tc.password)
			if len(got) != tc.want {
				t.Fatalf("violations=%v, want %d", got, tc.want)
			}
			if tc.contains == "" {
				return
			}
			found := false
			for _, v := range got {
				if strings.Contains(v, tc.contains) {
					found = true
				}
			}
			if !found {
				t.Fatalf("violations=%v, want one mentioning %q", got, tc.contains)
			}
		})
	}
}

func TestCheckStrength_ReportsAllViolations(t *testing.T) {
	t.Parallel()

	// 5 bytes, no upper, no digit: three independent rules broken.
	got := CheckStrength("abcde")
	if len(got) != 3 {
		t.Fatalf("violations=%v, want all 3 reported", got)
	}
}
