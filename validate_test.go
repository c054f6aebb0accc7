package authgate

import (
	"strings"
	"testing"
)

func TestValidUsername(t *testing.T) {
	valid := []string{"abc", "alice01", "ABCdef1234", "张伟东", "用户名abc"}
	invalid := []string{"", "ab", "toolongname1", "with space", "semi;colon", "dash-ed"}

	for _, u := range valid {
		if !ValidUsername(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}
	for _, u := range invalid {
		if ValidUsername(u) {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@x.com", "first.last@sub.domain.org", "tag+box@x.co"}
	invalid := []string{"", "plain", "@x.com", "a@", "a@x", "a@@x.com", "a b@x.com"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("expected %q to be valid", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("expected %q to be invalid", e)
		}
	}

	long := strings.Repeat("a", 250) + "@x.com"
	if ValidEmail(long) {
		t.Error("expected over-length address to be invalid")
	}
}

func TestValidPassword(t *testing.T) {
	valid := []string{"Passw0rd!", "Aa1!aaaa", "XyZ9#abcdefgh"}
	invalid := []string{
		"",
		"Aa1!aaa",           // too short
		"Aa1!aaaaaaaaaaaaa", // too long
		"passw0rd!",         // no upper
		"PASSW0RD!",         // no lower
		"Password!",         // no digit
		"Passw0rdX",         // no special
	}

	for _, p := range valid {
		if !ValidPassword(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	for _, p := range invalid {
		if ValidPassword(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}
