package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMeasurement_UnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{name: "Number", input: `21.5`, wantValid: true, wantValue: 21.5},
		{name: "Zero", input: `0`, wantValid: true, wantValue: 0},
		{name: "Negative", input: `-3.25`, wantValid: true, wantValue: -3.25},
		{name: "Numeric string", input: `"48.2"`, wantValid: true, wantValue: 48.2},
		{name: "Padded numeric string", input: `" 12 "`, wantValid: true, wantValue: 12},
		{name: "Null", input: `null`, wantValid: false},
		{name: "NaN string", input: `"nan"`, wantValid: false},
		{name: "Inf string", input: `"Inf"`, wantValid: false},
		{name: "Garbage string", input: `"abc"`, wantValid: false},
		{name: "Empty string", input: `""`, wantValid: false},
		{name: "Bool", input: `true`, wantValid: false},
		{name: "Object", input: `{"v":1}`, wantValid: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var m Measurement
			if err := json.Unmarshal([]byte(tc.input), &m); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if m.Valid != tc.wantValid {
				t.Errorf("Expected valid=%v, got %v", tc.wantValid, m.Valid)
			}
			if tc.wantValid && m.Float64 != tc.wantValue {
				t.Errorf("Expected value=%v, got %v", tc.wantValue, m.Float64)
			}
		})
	}
}

func TestMeasurement_UnmarshalOverwritesPreviousValue(t *testing.T) {
	m := Float(10)
	if err := json.Unmarshal([]byte(`"bad"`), &m); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Valid {
		t.Error("Expected previous value to be cleared")
	}
}

func TestMeasurement_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Measurement `json:"a"`
		B Measurement `json:"b"`
	}{A: Float(1.5), B: Measurement{}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != `{"a":1.5,"b":null}` {
		t.Errorf("Expected {\"a\":1.5,\"b\":null}, got %s", data)
	}
}

func TestFloat_RejectsNonFinite(t *testing.T) {
	if Float(math.NaN()).Valid {
		t.Error("Expected NaN to be invalid")
	}
	if Float(math.Inf(1)).Valid {
		t.Error("Expected +Inf to be invalid")
	}
	if !Float(0).Valid {
		t.Error("Expected 0 to be valid")
	}
}

func TestMeasurement_Scan(t *testing.T) {
	var m Measurement
	if err := m.Scan(nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if m.Valid {
		t.Error("Expected NULL to scan as missing")
	}

	if err := m.Scan(float64(22.5)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !m.Valid || m.Float64 != 22.5 {
		t.Errorf("Expected 22.5, got %v", m)
	}

	v, err := Measurement{}.Value()
	if err != nil || v != nil {
		t.Errorf("Expected nil driver value for missing measurement, got %v (%v)", v, err)
	}
}

func TestReading_IsSensorError(t *testing.T) {
	testCases := []struct {
		name     string
		reading  Reading
		expected bool
	}{
		{name: "Both zero", reading: Reading{Temperature: Float(0), Humidity: Float(0)}, expected: true},
		{name: "Temperature zero only", reading: Reading{Temperature: Float(0), Humidity: Float(40)}, expected: false},
		{name: "Humidity zero only", reading: Reading{Temperature: Float(20), Humidity: Float(0)}, expected: false},
		{name: "Zero and missing", reading: Reading{Temperature: Float(0)}, expected: false},
		{name: "Both missing", reading: Reading{}, expected: false},
		{name: "Normal", reading: Reading{Temperature: Float(21), Humidity: Float(50)}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.reading.IsSensorError(); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestReading_Stamp(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

	var r Reading
	r.Stamp(now)

	if r.ID == uuid.Nil {
		t.Error("Expected ID to be assigned")
	}
	if r.ServerTime != "2025-03-14T09:26:53.589Z" {
		t.Errorf("Expected serverTime=2025-03-14T09:26:53.589Z, got %s", r.ServerTime)
	}
	if r.ServerDate != now.Local().Format(DateLayout) {
		t.Errorf("Expected serverDate=%s, got %s", now.Local().Format(DateLayout), r.ServerDate)
	}

	got, ok := r.CapturedAt()
	if !ok {
		t.Fatal("Expected stamped time to parse")
	}
	if !got.Equal(now) {
		t.Errorf("Expected %v, got %v", now, got)
	}
}

func TestReading_CapturedAt_Malformed(t *testing.T) {
	for _, value := range []string{"", "12:30:00 PM", "yesterday"} {
		r := Reading{ServerTime: value}
		if _, ok := r.CapturedAt(); ok {
			t.Errorf("Expected %q not to parse", value)
		}
	}
}

func TestReading_DecodeSensorPayload(t *testing.T) {
	payload := `{"millis": 123456, "temperature": 22.4, "humidity": "55", "dewPoint": null}`

	var r Reading
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if r.Millis == nil || *r.Millis != 123456 {
		t.Errorf("Expected millis=123456, got %v", r.Millis)
	}
	if v, ok := r.Temperature.Get(); !ok || v != 22.4 {
		t.Errorf("Expected temperature=22.4, got %v", r.Temperature)
	}
	if v, ok := r.Humidity.Get(); !ok || v != 55 {
		t.Errorf("Expected humidity=55, got %v", r.Humidity)
	}
	if r.DewPoint.Valid {
		t.Error("Expected dewPoint to be missing")
	}
}
