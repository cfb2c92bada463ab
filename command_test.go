package qmkontext

import (
	"errors"
	"testing"
)

func TestReportBytes(t *testing.T) {
	buf := Report{Command: 0x10, Data: 0x42}.Bytes()

	if len(buf) != ReportSize+1 {
		t.Fatalf("Expected %d byte buffer, got %d", ReportSize+1, len(buf))
	}
	if buf[0] != 0 || buf[1] != 0x10 || buf[2] != 0x42 {
		t.Fatalf("Unexpected header % X", buf[:3])
	}
	for i, b := range buf[3:] {
		if b != 0 {
			t.Fatalf("Expected zero padding, byte %d = %d", i+3, b)
		}
	}
}

func TestReportFrameDispatches(t *testing.T) {
	r := NewRegistry()
	r.Register(0x30, func(p byte) bool { return p == 9 })

	frame, err := Report{Command: 0x30, Data: 9}.MarshalBinary()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !r.Dispatch(frame, len(frame)) {
		t.Fatal("Expected frame to be handled")
	}

	// the report id is stripped by the HID stack before the keyboard sees it
	raw := Report{Command: 0x30, Data: 9}.Bytes()[1:]
	if !r.Dispatch(raw, len(raw)) {
		t.Fatal("Expected raw report to be handled")
	}
}

func TestReportUnmarshalBinary(t *testing.T) {
	var r Report
	if err := r.UnmarshalBinary([]byte{0xFF, 0x01, 0xAA}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if r.Command != 0xFF || r.Data != 0x01 {
		t.Fatalf("Unexpected report %v", r)
	}

	if err := r.UnmarshalBinary([]byte{1}); !errors.Is(err, ErrShortReport) {
		t.Fatalf("Expected ErrShortReport, got: %v", err)
	}
}

func TestReportString(t *testing.T) {
	if got := (Report{Command: 0x0A, Data: 3}).String(); got != "command_id=0x0A data=3" {
		t.Fatalf("Unexpected string %q", got)
	}
}
