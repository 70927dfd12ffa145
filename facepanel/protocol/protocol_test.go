package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecode_Conversation(t *testing.T) {
	rec, err := Decode([]byte(`{"type":"conversation","user_text":"Good morning Gairi","gairi_text":"Good morning Tim!","expression":"happy","tier":"cloud","response_time":1.23}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	up, ok := rec.(ConversationUpdate)
	if !ok {
		t.Fatalf("expected ConversationUpdate, got %T", rec)
	}
	want := Conversation{
		UserText:      "Good morning Gairi",
		CompanionText: "Good morning Tim!",
		Expression:    "happy",
		Tier:          "cloud",
		ResponseTime:  1.23,
	}
	if up.Data != want {
		t.Errorf("got %+v, want %+v", up.Data, want)
	}
	if rec.Kind() != KindConversation {
		t.Errorf("expected kind conversation, got %s", rec.Kind())
	}
}

func TestDecode_ConversationDefaults(t *testing.T) {
	rec, err := Decode([]byte(`{"type":"conversation","user_text":"hi","gairi_text":"hello","expression":"idle"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := rec.(ConversationUpdate).Data
	if c.Tier != "local" {
		t.Errorf("expected default tier local, got %q", c.Tier)
	}
	if c.ResponseTime != 0 {
		t.Errorf("expected default response time 0, got %v", c.ResponseTime)
	}
}

func TestDecode_NegativeResponseTimeClamped(t *testing.T) {
	rec, err := Decode([]byte(`{"type":"debug","tier":"local","tool":"","response_time":-2}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.(DebugUpdate).Data.ResponseTime; got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestDecode_StatusAuthLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  AuthLevel
	}{
		{"owner", `,"level":1`, LevelOwner},
		{"guest", `,"level":2`, LevelGuest},
		{"stranger", `,"level":3`, LevelStranger},
		{"absent", ``, LevelStranger},
		{"null", `,"level":null`, LevelStranger},
		{"zero", `,"level":0`, LevelStranger},
		{"too high", `,"level":4`, LevelStranger},
		{"negative", `,"level":-1`, LevelStranger},
		{"fractional", `,"level":1.5`, LevelStranger},
		{"string", `,"level":"1"`, LevelStranger},
		{"object", `,"level":{}`, LevelStranger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := `{"type":"status","user":"Tim"` + tt.level + `,"state":"idle","expression":"happy"}`
			rec, err := Decode([]byte(frame))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := rec.(StatusUpdate).Data.Level
			if got != tt.want {
				t.Errorf("level = %d, want %d", got, tt.want)
			}
			if !got.Valid() {
				t.Errorf("level %d is not valid", got)
			}
		})
	}
}

func TestDecode_StatusConfidenceClamped(t *testing.T) {
	for frame, want := range map[string]float64{
		`{"type":"status","user":"a","state":"idle","expression":"x","confidence":0.82}`: 0.82,
		`{"type":"status","user":"a","state":"idle","expression":"x","confidence":1.7}`:  1,
		`{"type":"status","user":"a","state":"idle","expression":"x","confidence":-3}`:   0,
		`{"type":"status","user":"a","state":"idle","expression":"x"}`:                   0,
	} {
		rec, err := Decode([]byte(frame))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", frame, err)
		}
		if got := rec.(StatusUpdate).Data.Confidence; got != want {
			t.Errorf("%s: confidence = %v, want %v", frame, got, want)
		}
	}
}

func TestDecode_Debug(t *testing.T) {
	rec, err := Decode([]byte(`{"type":"debug","tier":"local","tool":"calendar_tool","training_logged":true,"response_time":0.42}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Debug{Tier: "local", Tool: "calendar_tool", TrainingLogged: true, ResponseTime: 0.42}
	if got := rec.(DebugUpdate).Data; got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr error
		wantMsg string
	}{
		{"not json", `hello`, ErrMalformedFrame, "Invalid JSON"},
		{"truncated", `{"type":"status"`, ErrMalformedFrame, "Invalid JSON"},
		{"array", `[1,2,3]`, ErrMalformedFrame, "Invalid JSON"},
		{"missing type", `{"user":"Tim"}`, ErrMalformedFrame, "Missing message type"},
		{"empty type", `{"type":""}`, ErrMalformedFrame, "Missing message type"},
		{"numeric type", `{"type":7}`, ErrMalformedFrame, "Invalid field: type"},
		{"bad field", `{"type":"debug","tier":"local","tool":5}`, ErrMalformedFrame, "Invalid field: tool"},
		{"bad bool", `{"type":"debug","tier":"local","tool":"x","training_logged":"yes"}`, ErrMalformedFrame, "Invalid field: training_logged"},
		{"unknown", `{"type":"bogus"}`, ErrUnknownRecordKind, "Unknown message type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode([]byte(tt.frame))
			if rec != nil {
				t.Errorf("expected nil record, got %T", rec)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := HostMessage(err); got != tt.wantMsg {
				t.Errorf("host message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestOutbound_Frames(t *testing.T) {
	tests := []struct {
		rec  Outbound
		want string
	}{
		{Ready(), `{"status":"ready"}`},
		{Ack(KindConversation), `{"status":"conversation_updated"}`},
		{Ack(KindStatus), `{"status":"status_updated"}`},
		{Ack(KindDebug), `{"status":"debug_updated"}`},
		{Error("Unknown message type"), `{"error":"Unknown message type"}`},
		{Error(""), `{"error":"unknown error"}`},
		{DemoMode(), `{"action":"demo_mode"}`},
		{GuestMode(), `{"action":"guest_mode","duration":3600}`},
		{Action("wave", 1500*time.Millisecond), `{"action":"wave","duration":1}`},
	}
	for _, tt := range tests {
		got := tt.rec.AppendFrame(nil)
		if string(got) != tt.want+"\n" {
			t.Errorf("got %q, want %q", got, tt.want+"\n")
		}
		if tt.rec.String() != tt.want {
			t.Errorf("String() = %q, want %q", tt.rec.String(), tt.want)
		}
	}
}

func TestOutbound_AppendReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 64)
	buf = Ready().AppendFrame(buf[:0])
	buf = Ack(KindStatus).AppendFrame(buf[:0])
	if string(buf) != "{\"status\":\"status_updated\"}\n" {
		t.Errorf("unexpected frame %q", buf)
	}
}

// collect feeds input to f in one call sequence and returns the frames
// and errors in order.
func collect(f *Framer, input []byte) (frames []string, errs int) {
	for len(input) > 0 {
		n, frame, err := f.Next(input)
		input = input[n:]
		if err != nil {
			frames = append(frames, "ERR:"+err.Error())
			errs++
		}
		if frame != nil {
			frames = append(frames, string(frame))
		}
	}
	return frames, errs
}

func TestFramer_SplitsLines(t *testing.T) {
	f := NewFramer(DefaultCapacity)
	frames, errs := collect(f, []byte("{\"a\":1}\n\n  \r\n{\"b\":2}\r\n{\"c\""))
	if errs != 0 {
		t.Fatalf("unexpected errors: %v", frames)
	}
	want := []string{`{"a":1}`, `{"b":2}`}
	if strings.Join(frames, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", frames, want)
	}
	if f.Buffered() != 4 {
		t.Errorf("expected 4 pending bytes, got %d", f.Buffered())
	}

	frames, _ = collect(f, []byte(":3}\n"))
	if len(frames) != 1 || frames[0] != `{"c":3}` {
		t.Errorf("expected frame split across writes to be joined, got %q", frames)
	}
}

func TestFramer_ByteAtATime(t *testing.T) {
	f := NewFramer(MinCapacity)
	var got []string
	for _, b := range []byte("{\"type\":\"bogus\"}\n") {
		n, frame, err := f.Next([]byte{b})
		if n != 1 || err != nil {
			t.Fatalf("unexpected n=%d err=%v", n, err)
		}
		if frame != nil {
			got = append(got, string(frame))
		}
	}
	if len(got) != 1 || got[0] != `{"type":"bogus"}` {
		t.Errorf("got %q", got)
	}
}

func TestFramer_Overflow(t *testing.T) {
	f := NewFramer(1024)
	input := append(bytes.Repeat([]byte{'x'}, 1100), '\n')
	input = append(input, []byte("{\"type\":\"debug\",\"tier\":\"local\",\"tool\":\"\"}\n")...)

	frames, errs := collect(f, input)
	if errs != 1 {
		t.Fatalf("expected exactly one overflow, got %d (%q)", errs, frames)
	}
	if frames[0] != "ERR:buffer overflow" {
		t.Errorf("expected overflow first, got %q", frames[0])
	}
	// The 76 bytes after the overflow form their own (garbage) line.
	if frames[1] != strings.Repeat("x", 76) {
		t.Errorf("expected remainder line, got %d bytes", len(frames[1]))
	}
	last := frames[len(frames)-1]
	if _, err := Decode([]byte(last)); err != nil {
		t.Errorf("frame after overflow should decode, got %v", err)
	}
}

func TestFramer_ExactCapacityFits(t *testing.T) {
	f := NewFramer(MinCapacity)
	line := append(bytes.Repeat([]byte{'a'}, MinCapacity), '\n')
	frames, errs := collect(f, line)
	if errs != 0 || len(frames) != 1 || len(frames[0]) != MinCapacity {
		t.Errorf("expected one full-capacity frame, got errs=%d frames=%d", errs, len(frames))
	}
}

func TestNewFramer_ClampsCapacity(t *testing.T) {
	if got := NewFramer(10).Cap(); got != MinCapacity {
		t.Errorf("expected %d, got %d", MinCapacity, got)
	}
	if got := NewFramer(1 << 20).Cap(); got != MaxCapacity {
		t.Errorf("expected %d, got %d", MaxCapacity, got)
	}
}

func TestHostMessage_Overflow(t *testing.T) {
	if got := HostMessage(ErrBufferOverflow); got != "buffer overflow" {
		t.Errorf("got %q", got)
	}
}
