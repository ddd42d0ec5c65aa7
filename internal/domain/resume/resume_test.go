package resume

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/talentsift/resumatch/internal/domain"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNew_Valid(t *testing.T) {
	r, err := New("res-1", "jane.txt", "https://files.example.com/jane.txt", "Go engineer, 7 years", testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID() != "res-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Filename() != "jane.txt" {
		t.Errorf("Filename() = %q", r.Filename())
	}
	if r.SourceURL() != "https://files.example.com/jane.txt" {
		t.Errorf("SourceURL() = %q", r.SourceURL())
	}
	if r.Content() != "Go engineer, 7 years" {
		t.Errorf("Content() = %q", r.Content())
	}
	if r.Vector() != nil {
		t.Error("Vector() should be nil before embedding")
	}
	if !r.CreatedAt().Equal(testTime) {
		t.Errorf("CreatedAt() = %v", r.CreatedAt())
	}
}

func TestNew_EmptyContentAllowed(t *testing.T) {
	r, err := New("res-1", "empty.txt", "", "", testTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.HasContent() {
		t.Error("HasContent() = true for empty content")
	}
}

func TestNew_WhitespaceContentIsNotContent(t *testing.T) {
	r, _ := New("res-1", "blank.txt", "", "  \n\t ", testTime)
	if r.HasContent() {
		t.Error("HasContent() = true for whitespace-only content")
	}
}

func TestNew_EmptyID(t *testing.T) {
	_, err := New("", "f.txt", "", "text", testTime)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestNew_BadID(t *testing.T) {
	for _, id := range []string{"has space", "slash/id", "uni∂ode", strings.Repeat("x", 65)} {
		if _, err := New(id, "f.txt", "", "text", testTime); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("New(%q): error = %v, want ErrInvalidArgument", id, err)
		}
	}
}

func TestNew_EmptyFilename(t *testing.T) {
	_, err := New("res-1", "", "", "text", testTime)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestNew_ContentTooLarge(t *testing.T) {
	_, err := New("res-1", "big.txt", "", strings.Repeat("a", MaxContentSize+1), testTime)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestWithVector(t *testing.T) {
	r, _ := New("res-1", "f.txt", "", "text", testTime)
	v := []float32{0.1, 0.2}

	withVec := r.WithVector(v)
	if withVec.Vector() == nil {
		t.Fatal("WithVector did not set the vector")
	}
	if r.Vector() != nil {
		t.Error("WithVector mutated the original")
	}
	if withVec.ID() != r.ID() || withVec.Content() != r.Content() {
		t.Error("WithVector lost fields")
	}
}

func TestReconstruct(t *testing.T) {
	v := []float32{1, 2, 3}
	r := Reconstruct("any id with spaces ok", "f.txt", "", "text", v, testTime)
	if r.ID() != "any id with spaces ok" {
		t.Errorf("ID() = %q", r.ID())
	}
	if len(r.Vector()) != 3 {
		t.Errorf("Vector() = %v", r.Vector())
	}
}

func TestPreview(t *testing.T) {
	short, _ := New("res-1", "f.txt", "", "short text", testTime)
	if short.Preview() != "short text" {
		t.Errorf("Preview() = %q", short.Preview())
	}

	long, _ := New("res-2", "f.txt", "", strings.Repeat("я", PreviewLength+50), testTime)
	preview := long.Preview()
	if got := len([]rune(preview)); got != PreviewLength {
		t.Errorf("Preview() length = %d runes, want %d", got, PreviewLength)
	}
	if !strings.HasPrefix(strings.Repeat("я", PreviewLength+50), preview) {
		t.Error("Preview() is not a prefix of the content")
	}
}
