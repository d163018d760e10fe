package feecalc

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
)

func TestUnlockFee(t *testing.T) {
	cases := []struct {
		name       string
		annualRent string
		totalRooms int
		want       string
	}{
		{name: "whole result", annualRent: "180000", totalRooms: 4, want: "450"},
		{name: "single room", annualRent: "250000", totalRooms: 1, want: "2500"},
		{name: "rounds half up", annualRent: "123450", totalRooms: 4, want: "309"},
		{name: "rounds down below half", annualRent: "100000", totalRooms: 3, want: "333"},
		{name: "zero rent", annualRent: "0", totalRooms: 5, want: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rent, err := decimal.NewFromString(tc.annualRent)
			if err != nil {
				t.Fatalf("parse rent: %v", err)
			}
			fee, err := UnlockFee(rent, tc.totalRooms)
			if err != nil {
				t.Fatalf("UnlockFee returned error: %v", err)
			}
			if fee.String() != tc.want {
				t.Fatalf("expected fee %s, got %s", tc.want, fee.String())
			}
		})
	}
}

func TestUnlockFee_InvalidInputs(t *testing.T) {
	if _, err := UnlockFee(decimal.NewFromInt(180000), 0); err == nil {
		t.Fatal("expected error for zero rooms")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := UnlockFee(decimal.NewFromInt(-1), 2); err == nil {
		t.Fatal("expected error for negative rent")
	}
}

func TestUnlockFeeMinorUnits(t *testing.T) {
	got, err := UnlockFeeMinorUnits(decimal.NewFromInt(180000), 4)
	if err != nil {
		t.Fatalf("UnlockFeeMinorUnits returned error: %v", err)
	}
	if got != 45000 {
		t.Fatalf("expected 45000 minor units, got %d", got)
	}
}
