package platform

import (
	"testing"

	"github.com/mj1618/page-turner/internal/model"
)

func TestParseBBox_Valid(t *testing.T) {
	b, err := ParseBBox("10,20,300,400")
	if err != nil {
		t.Fatal(err)
	}
	if b.X != 10 || b.Y != 20 || b.Width != 300 || b.Height != 400 {
		t.Errorf("got %+v, want {10 20 300 400}", b)
	}
	if b.Array() != [4]int{10, 20, 300, 400} {
		t.Errorf("Array() = %v", b.Array())
	}
}

func TestParseBBox_WithSpaces(t *testing.T) {
	b, err := ParseBBox("10, 20, 300, 400")
	if err != nil {
		t.Fatal(err)
	}
	if b.X != 10 || b.Y != 20 || b.Width != 300 || b.Height != 400 {
		t.Errorf("got %+v, want {10 20 300 400}", b)
	}
}

func TestParseBBox_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10,20,300",
		"10,20,300,400,500",
		"a,b,c,d",
		"10,20,abc,400",
	}
	for _, s := range tests {
		_, err := ParseBBox(s)
		if err == nil {
			t.Errorf("ParseBBox(%q) should fail", s)
		}
	}
}

func TestParseViewport(t *testing.T) {
	tests := []struct {
		input   string
		want    model.Viewport
		wantErr bool
	}{
		{"1280x800", model.Viewport{Width: 1280, Height: 800}, false},
		{" 1000X700 ", model.Viewport{Width: 1000, Height: 700}, false},
		{"1000", model.Viewport{}, true},
		{"0x700", model.Viewport{}, true},
		{"wide x tall", model.Viewport{}, true},
	}
	for _, tt := range tests {
		got, err := ParseViewport(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseViewport(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseViewport(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestOptions_ViewportOrDefault(t *testing.T) {
	if got := (Options{}).ViewportOrDefault(); got != DefaultViewport {
		t.Errorf("zero viewport should default, got %+v", got)
	}
	vp := model.Viewport{Width: 1000, Height: 600}
	if got := (Options{Viewport: vp}).ViewportOrDefault(); got != vp {
		t.Errorf("got %+v, want %+v", got, vp)
	}
}

func TestQuery_String(t *testing.T) {
	q := Query{Selector: "span.icon", Closest: "button"}
	if q.String() != "span.icon => closest(button)" {
		t.Errorf("String() = %q", q.String())
	}
	if (Query{Selector: "a"}).String() != "a" {
		t.Error("plain query should print selector")
	}
}
