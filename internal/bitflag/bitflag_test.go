package bitflag

import "testing"

func TestAddSetsBits(t *testing.T) {
	f := Empty().Add(1).Add(4)
	if !f.Has(1) || !f.Has(4) {
		t.Errorf("Add should set both bits, got %b", f.Bits())
	}
	if f.Has(2) {
		t.Errorf("unrelated bit should not be set, got %b", f.Bits())
	}
}

func TestHasRequiresEveryMaskBit(t *testing.T) {
	f := FromBits(0b0101)
	if !f.Has(0b0001) {
		t.Error("Has should report true when mask is a subset")
	}
	if f.Has(0b0011) {
		t.Error("Has should report false when mask has a bit f lacks")
	}
}

func TestRemoveClearsOnlyMaskedBits(t *testing.T) {
	f := FromBits(0b1111).Remove(0b0101)
	if f.Bits() != 0b1010 {
		t.Errorf("Remove(0b0101) of 0b1111 = %b, want %b", f.Bits(), 0b1010)
	}
}

func TestToggleFlipsBits(t *testing.T) {
	f := FromBits(0b1010)
	f = f.Toggle(0b1100)
	if f.Bits() != 0b0110 {
		t.Errorf("Toggle(0b1100) of 0b1010 = %b, want %b", f.Bits(), 0b0110)
	}
}
