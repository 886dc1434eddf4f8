package validator

import (
	"strings"
	"testing"
	"time"

	"stayhub/pkg/logger"
	"stayhub/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validReservation() *model.Reservation {
	return &model.Reservation{
		UserID:   "0b8f849d-7a4a-44a2-a8d8-528c7ce1677a",
		RoomID:   "68b0a1b2c3d4e5f607080901",
		CheckIn:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidate_Valid(t *testing.T) {
	v := NewReservationValidator(30, testLogger())

	if err := v.Validate(validReservation()); err != nil {
		t.Fatalf("expected valid reservation, got %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	v := NewReservationValidator(30, testLogger())

	cases := []struct {
		name    string
		mutate  func(r *model.Reservation)
		wantSub string
	}{
		{
			name:    "missing user id",
			mutate:  func(r *model.Reservation) { r.UserID = "" },
			wantSub: "UserID",
		},
		{
			name:    "malformed user id",
			mutate:  func(r *model.Reservation) { r.UserID = "not-a-uuid" },
			wantSub: "UUID",
		},
		{
			name:    "missing room id",
			mutate:  func(r *model.Reservation) { r.RoomID = "" },
			wantSub: "RoomID",
		},
		{
			name:    "malformed room id",
			mutate:  func(r *model.Reservation) { r.RoomID = "nope" },
			wantSub: "ObjectID",
		},
		{
			name:    "checkout equals checkin",
			mutate:  func(r *model.Reservation) { r.CheckOut = r.CheckIn },
			wantSub: "CheckOut",
		},
		{
			name:    "checkout before checkin",
			mutate:  func(r *model.Reservation) { r.CheckOut = r.CheckIn.AddDate(0, 0, -1) },
			wantSub: "CheckOut",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validReservation()
			tc.mutate(r)

			err := v.Validate(r)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("expected error mentioning %q, got %q", tc.wantSub, err.Error())
			}
		})
	}
}

func TestValidate_MaxStayNights(t *testing.T) {
	v := NewReservationValidator(30, testLogger())

	r := validReservation()
	r.CheckOut = r.CheckIn.AddDate(0, 0, 31)

	err := v.Validate(r)
	if err == nil {
		t.Fatal("expected validation error for 31-night stay, got nil")
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("expected max stay message, got %q", err.Error())
	}

	r.CheckOut = r.CheckIn.AddDate(0, 0, 30)
	if err := v.Validate(r); err != nil {
		t.Errorf("expected 30-night stay to be valid, got %v", err)
	}
}

func TestValidate_NoMaxStayCap(t *testing.T) {
	v := NewReservationValidator(0, testLogger())

	r := validReservation()
	r.CheckOut = r.CheckIn.AddDate(0, 0, 120)

	if err := v.Validate(r); err != nil {
		t.Errorf("expected no cap when maxStayNights is 0, got %v", err)
	}
}
