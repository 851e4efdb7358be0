package protocol

import "testing"

func TestMessage_CreateAndVerify(t *testing.T) {
	msg, err := NewText("Hello, World!", 42)
	if err != nil {
		t.Fatalf("NewText: %v", err)
	}

	ok, err := msg.VerifyChecksum()
	if err != nil {
		t.Fatalf("VerifyChecksum: %v", err)
	}
	if !ok {
		t.Error("expected checksum to verify")
	}

	text, err := msg.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "Hello, World!" {
		t.Errorf("Text() = %q, want %q", text, "Hello, World!")
	}
	if msg.Header.SequenceNumber != 42 {
		t.Errorf("SequenceNumber = %d, want 42", msg.Header.SequenceNumber)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	framed, err := enc.EncodeText("Test message")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	messages := dec.Feed(framed)
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}

	text, err := messages[0].Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "Test message" {
		t.Errorf("Text() = %q, want %q", text, "Test message")
	}
}

func TestChecksum_DetectsCorruption(t *testing.T) {
	msg, err := NewText("Test", 1)
	if err != nil {
		t.Fatalf("NewText: %v", err)
	}

	ok, err := msg.VerifyChecksum()
	if err != nil || !ok {
		t.Fatalf("expected valid checksum before corruption, ok=%v err=%v", ok, err)
	}

	msg.Payload[0] ^= 0xFF

	ok, err = msg.VerifyChecksum()
	if err != nil {
		t.Fatalf("VerifyChecksum: %v", err)
	}
	if ok {
		t.Error("expected checksum verification to fail after corruption")
	}
}

func TestDecoder_PartialChunks(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	framed, err := enc.EncodeText("Test")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	var all []Message
	const chunkSize = 5
	for i := 0; i < len(framed); i += chunkSize {
		end := i + chunkSize
		if end > len(framed) {
			end = len(framed)
		}
		all = append(all, dec.Feed(framed[i:end])...)
	}

	if len(all) != 1 {
		t.Fatalf("len(all) = %d, want 1", len(all))
	}
	text, _ := all[0].Text()
	if text != "Test" {
		t.Errorf("Text() = %q, want %q", text, "Test")
	}
}

func TestDecoder_MultipleMessagesInOneFeed(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	var combined []byte
	for _, text := range []string{"one", "two", "three"} {
		framed, err := enc.EncodeText(text)
		if err != nil {
			t.Fatalf("EncodeText(%q): %v", text, err)
		}
		combined = append(combined, framed...)
	}

	messages := dec.Feed(combined)
	if len(messages) != 3 {
		t.Fatalf("len(messages) = %d, want 3", len(messages))
	}
	for i, want := range []string{"one", "two", "three"} {
		got, err := messages[i].Text()
		if err != nil {
			t.Fatalf("Text(): %v", err)
		}
		if got != want {
			t.Errorf("messages[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestDecoder_Resynchronizes(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	framed, err := enc.EncodeText("after garbage")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	garbage := []byte("this is not a preamble at all, just junk bytes")
	messages := dec.Feed(append(garbage, framed...))

	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}
	text, _ := messages[0].Text()
	if text != "after garbage" {
		t.Errorf("Text() = %q, want %q", text, "after garbage")
	}
}

func TestDecoder_CorruptedChecksumDropsSilently(t *testing.T) {
	enc := NewEncoder()
	dec := NewDecoder()

	framed, err := enc.EncodeText("Corruption test message")
	if err != nil {
		t.Fatalf("EncodeText: %v", err)
	}

	// Flip the low bit of the checksum's last digit (just before the
	// closing brace and the end delimiter): the digit stays a digit, so
	// the message still deserializes but fails its checksum.
	corruptIdx := len(framed) - len(endDelimiter) - 2
	framed[corruptIdx] ^= 0x01

	messages := dec.Feed(framed)
	if len(messages) != 0 {
		t.Fatalf("len(messages) = %d, want 0 for corrupted message", len(messages))
	}
}

func TestNewText_OversizePayload(t *testing.T) {
	big := make([]byte, MaxMessageLength+1)
	for i := range big {
		big[i] = 'a'
	}
	if _, err := NewText(string(big), 0); err == nil {
		t.Fatal("expected error for oversize payload, got nil")
	}
}
