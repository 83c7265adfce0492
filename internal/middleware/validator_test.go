package middleware

import "testing"

func TestValidateSessionID(t *testing.T) {
	if err := ValidateSessionID("3f2504e0-4f89-41d3-9a0c-0305e82c3301"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
	for _, id := range []string{"", "abc", "3f2504e04f8941d39a0c0305e82c3301", "../../etc/passwd"} {
		if err := ValidateSessionID(id); err == nil {
			t.Errorf("%q accepted", id)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"reef.jpg":             "reef.jpg",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\dive.mp4`: "dive.mp4",
		"bad\x00name.png":      "badname.png",
		"..":                   "",
		"":                     "",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateDimension(t *testing.T) {
	if n, err := ValidateDimension("", 100); err != nil || n != 0 {
		t.Errorf("empty = %d, %v", n, err)
	}
	if n, err := ValidateDimension("640", 100); err != nil || n != 100 {
		t.Errorf("clamped = %d, %v", n, err)
	}
	if _, err := ValidateDimension("-1", 100); err == nil {
		t.Error("negative accepted")
	}
	if _, err := ValidateDimension("wide", 100); err == nil {
		t.Error("non-number accepted")
	}
}

func TestValidateEndpointURL(t *testing.T) {
	if err := ValidateEndpointURL("https://vision.example.com"); err != nil {
		t.Errorf("valid url rejected: %v", err)
	}
	for _, u := range []string{"", "ftp://x", "http://"} {
		if err := ValidateEndpointURL(u); err == nil {
			t.Errorf("%q accepted", u)
		}
	}
}
