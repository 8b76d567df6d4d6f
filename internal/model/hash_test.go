package model

import "testing"

func TestHashTitleCompany_NormalizesCaseAndWhitespace(t *testing.T) {
	a := HashTitleCompany("Backend Engineer", "Acme")
	b := HashTitleCompany("  backend engineer ", "ACME")
	if a != b {
		t.Errorf("expected identical hashes, got %q and %q", a, b)
	}
}

func TestHashTitleCompany_DistinctTitles(t *testing.T) {
	a := HashTitleCompany("Backend Engineer", "X")
	b := HashTitleCompany("Frontend Engineer", "X")
	if a == b {
		t.Errorf("expected different hashes for different titles, both %q", a)
	}
}

func TestHashTitleCompany_Length(t *testing.T) {
	h := HashTitleCompany("Backend Engineer", "Acme")
	if len(h) != 16 {
		t.Errorf("hash length = %d, want 16", len(h))
	}
}
