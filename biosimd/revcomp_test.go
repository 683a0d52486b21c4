package biosimd

import "testing"

func TestReverseComp8NoValidate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ACGT", "ACGT"},
		{"AAAA", "TTTT"},
		{"GATTACA", "TGTAATC"},
		{"N", "N"},
		{"acgt", "acgt"},
	}
	for _, c := range cases {
		dst := make([]byte, len(c.in))
		ReverseComp8NoValidate(dst, []byte(c.in))
		if string(dst) != c.want {
			t.Errorf("ReverseComp8NoValidate(%q) = %q, want %q", c.in, dst, c.want)
		}
	}
}

func TestReverseComp8InplaceNoValidate(t *testing.T) {
	b := []byte("GATTACA")
	ReverseComp8InplaceNoValidate(b)
	if string(b) != "TGTAATC" {
		t.Errorf("got %q", b)
	}
	ReverseComp8InplaceNoValidate(b)
	if string(b) != "GATTACA" {
		t.Errorf("round trip got %q", b)
	}
}

func TestIsNonACGTPresent(t *testing.T) {
	if IsNonACGTPresent([]byte("ACGTacgt")) {
		t.Error("false positive")
	}
	if !IsNonACGTPresent([]byte("ACGTN")) {
		t.Error("false negative")
	}
}

func TestCleanASCIISeqInplace(t *testing.T) {
	b := []byte("acgtNRY")
	CleanASCIISeqInplace(b)
	if string(b) != "ACGTNNN" {
		t.Errorf("got %q", b)
	}
}
