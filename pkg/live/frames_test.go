package live

import (
	"errors"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame *Frame
	}{
		{"hello", NewHelloFrame("abc123", "<div>hi</div>")},
		{"update", NewUpdateFrame(7, "<p>count: 7</p>")},
		{"event", NewEventFrame("click", []int{0, 2}, map[string]any{"value": "x"})},
		{"event no data", NewEventFrame("submit", []int{1}, nil)},
		{"error", NewErrorFrame("bad_frame", "invalid frame")},
		{"ping", NewPingFrame(1234)},
		{"pong", NewPongFrame(1234)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeFrame(tt.frame)
			if err != nil {
				t.Fatalf("EncodeFrame() error: %v", err)
			}

			got, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame() error: %v", err)
			}

			if got.Type != tt.frame.Type {
				t.Errorf("Type = %q, want %q", got.Type, tt.frame.Type)
			}
			if got.Session != tt.frame.Session {
				t.Errorf("Session = %q, want %q", got.Session, tt.frame.Session)
			}
			if got.Seq != tt.frame.Seq {
				t.Errorf("Seq = %d, want %d", got.Seq, tt.frame.Seq)
			}
			if got.HTML != tt.frame.HTML {
				t.Errorf("HTML = %q, want %q", got.HTML, tt.frame.HTML)
			}
			if got.Event != tt.frame.Event {
				t.Errorf("Event = %q, want %q", got.Event, tt.frame.Event)
			}
			if len(got.Path) != len(tt.frame.Path) {
				t.Errorf("Path = %v, want %v", got.Path, tt.frame.Path)
			}
			if got.TS != tt.frame.TS {
				t.Errorf("TS = %d, want %d", got.TS, tt.frame.TS)
			}
		})
	}
}

func TestDecodeFrameRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"missing type", `{"event":"click"}`},
		{"event without name", `{"type":"event","path":[0]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.data))
			if !errors.Is(err, ErrBadFrame) {
				t.Fatalf("DecodeFrame() error = %v, want %v", err, ErrBadFrame)
			}
		})
	}
}

func TestDecodeFrameKeepsEventPayload(t *testing.T) {
	data := []byte(`{"type":"event","event":"input","path":[0,1],"data":{"value":"matt","checked":true}}`)

	frame, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame() error: %v", err)
	}
	if frame.Event != "input" {
		t.Errorf("Event = %q, want %q", frame.Event, "input")
	}
	if len(frame.Path) != 2 || frame.Path[0] != 0 || frame.Path[1] != 1 {
		t.Errorf("Path = %v, want [0 1]", frame.Path)
	}
	if frame.Data["value"] != "matt" {
		t.Errorf("Data[value] = %v, want %q", frame.Data["value"], "matt")
	}
	if frame.Data["checked"] != true {
		t.Errorf("Data[checked] = %v, want true", frame.Data["checked"])
	}
}
