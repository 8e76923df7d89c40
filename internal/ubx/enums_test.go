package ubx

import "testing"

func TestModelFromStringIsCaseInsensitive(t *testing.T) {
	model, err := ModelFromString("Portable")
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}
	if model != DynModelPortable {
		t.Fatalf("expected portable code, got %d", model)
	}

	model, err = ModelFromString("AIRBORNE2")
	if err != nil {
		t.Fatalf("parse model: %v", err)
	}
	if model != DynModelAirborne2 {
		t.Fatalf("expected airborne2 code, got %d", model)
	}
}

func TestModelFromStringRejectsUnknownModel(t *testing.T) {
	if _, err := ModelFromString("bogus"); err == nil {
		t.Fatalf("expected error for unknown model")
	}
}

func TestFixModeFromString(t *testing.T) {
	mode, err := FixModeFromString("Auto")
	if err != nil {
		t.Fatalf("parse fix mode: %v", err)
	}
	if mode != FixModeAuto {
		t.Fatalf("expected auto code, got %d", mode)
	}

	if _, err := FixModeFromString("4d"); err == nil {
		t.Fatalf("expected error for unknown fix mode")
	}
}
