package model

import (
	"errors"
	"testing"
)

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		name    string
		cadence string
		want    Frequency
		days    int
		wantErr bool
	}{
		{name: "monthly", cadence: "monthly", want: Monthly},
		{name: "case and space insensitive", cadence: "  Weekly ", want: Weekly},
		{name: "days ignored for fixed cadence", cadence: "yearly", days: 3, want: Yearly},
		{name: "custom", cadence: "custom", days: 14, want: Custom(14)},
		{name: "custom without interval", cadence: "custom", wantErr: true},
		{name: "unknown", cadence: "fortnightly", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrequency(tt.cadence, tt.days)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrequency() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrInvalidFrequency) {
					t.Errorf("error %v does not wrap ErrInvalidFrequency", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseFrequency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrequency_Validate(t *testing.T) {
	if err := (Frequency{Cadence: CadenceMonthly, IntervalDays: 31}).Validate(); err == nil {
		t.Error("monthly with a non-nominal interval should be invalid")
	}
	if err := (Frequency{}).Validate(); err == nil {
		t.Error("zero frequency should be invalid")
	}
	for _, f := range []Frequency{Daily, Weekly, Monthly, Quarterly, Yearly, Custom(1)} {
		if err := f.Validate(); err != nil {
			t.Errorf("%v.Validate() = %v", f, err)
		}
	}
}

func TestFrequency_Months(t *testing.T) {
	tests := []struct {
		freq Frequency
		want int
	}{
		{Daily, 0},
		{Weekly, 0},
		{Monthly, 1},
		{Quarterly, 3},
		{Yearly, 12},
		{Custom(30), 0},
	}
	for _, tt := range tests {
		if got := tt.freq.Months(); got != tt.want {
			t.Errorf("%v.Months() = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestFrequency_String(t *testing.T) {
	if got := Quarterly.String(); got != "quarterly" {
		t.Errorf("String() = %q", got)
	}
	if got := Custom(16).String(); got != "every 16 days" {
		t.Errorf("String() = %q", got)
	}
}
