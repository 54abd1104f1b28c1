package validator

import "testing"

func TestValidateSeatCode(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		code  string
		valid bool
	}{
		{"A1", true},
		{"A12", true},
		{"AA7", true},
		{"B101", true},
		{"a1", false},
		{"A0", false},
		{"A", false},
		{"12", false},
		{"A1234", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := v.Var(tt.code, "seat_code")
			if (err == nil) != tt.valid {
				t.Errorf("seat_code(%q) valid = %v, want %v", tt.code, err == nil, tt.valid)
			}
		})
	}
}

func TestValidateBookingStatus(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		status string
		valid  bool
	}{
		{"Pending", true},
		{"Confirmed", true},
		{"Cancelled", true},
		{"pending", false},
		{"Done", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			err := v.Var(tt.status, "booking_status")
			if (err == nil) != tt.valid {
				t.Errorf("booking_status(%q) valid = %v, want %v", tt.status, err == nil, tt.valid)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid password", "Str0ng&Pass", true},
		{"too short", "S0&a", false},
		{"missing uppercase", "str0ng&pass", false},
		{"missing digit", "Strong&Pass", false},
		{"missing special", "Str0ngPass1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Var(tt.password, "password")
			if (err == nil) != tt.valid {
				t.Errorf("password(%q) valid = %v, want %v", tt.password, err == nil, tt.valid)
			}
		})
	}
}
