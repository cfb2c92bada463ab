package qmkontext

import "fmt"

// ReportSize is the size of a QMK raw HID report.
const ReportSize = 32

// CommandID selects the handler slot an incoming report is dispatched to.
type CommandID uint8

func (c CommandID) String() string {
	return fmt.Sprintf("0x%02X", uint8(c))
}

// Report is a single command sent from the host to the keyboard
type Report struct {
	Command CommandID
	Data    byte
}

// Handler processes the payload byte of a report. It returns true when the
// event has been handled.
type Handler func(payload byte) bool

// Bytes returns the buffer written to the HID device: a leading report id
// followed by the 32 byte raw HID report.
func (r Report) Bytes() []byte {
	buf := make([]byte, ReportSize+1)
	buf[1] = byte(r.Command)
	buf[2] = r.Data
	return buf
}

// MarshalBinary encodes the report as the two byte frame the firmware reads.
func (r Report) MarshalBinary() ([]byte, error) {
	return []byte{byte(r.Command), r.Data}, nil
}

// UnmarshalBinary decodes a frame produced by MarshalBinary. Trailing bytes
// are ignored, as they are on the keyboard side.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return ErrShortReport
	}
	r.Command = CommandID(data[0])
	r.Data = data[1]
	return nil
}

func (r Report) String() string {
	return fmt.Sprintf("command_id=%s data=%d", r.Command, r.Data)
}
