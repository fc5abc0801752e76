package qr

import (
	"image"
	"testing"
)

func TestGenerateDecodeRoundTrip(t *testing.T) {
	for _, studentID := range []string{"12", "student_12", "ABC_123"} {
		png, err := GeneratePNG(studentID, 256)
		if err != nil {
			t.Fatalf("generate %q: %v", studentID, err)
		}

		decoded, found, err := DecodeImage(NewDecoder(), png)
		if err != nil {
			t.Fatalf("decode %q: %v", studentID, err)
		}
		if !found {
			t.Fatalf("no code found in generated image for %q", studentID)
		}
		if decoded != studentID {
			t.Errorf("round trip %q -> %q", studentID, decoded)
		}
	}
}

func TestGenerateDefaultSize(t *testing.T) {
	png, err := GeneratePNG("student_12", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) == 0 {
		t.Error("empty image")
	}
}

func TestDecodeBlankFrameIsAMiss(t *testing.T) {
	blank := image.NewGray(image.Rect(0, 0, 64, 64))
	_, found, err := NewDecoder().Decode(blank)
	if err != nil {
		t.Fatalf("a blank frame should be a miss, not an error: %v", err)
	}
	if found {
		t.Error("found a code in a blank frame")
	}
}

func TestDecodeImageGarbage(t *testing.T) {
	if _, _, err := DecodeImage(NewDecoder(), []byte("not an image")); err == nil {
		t.Error("garbage bytes should error")
	}
}
