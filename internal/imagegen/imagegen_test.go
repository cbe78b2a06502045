package imagegen

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestGenerateCard(t *testing.T) {
	data, err := GenerateCard(CardData{
		District:  "Dehradun",
		Years:     10,
		Inflow:    "1200",
		Outflow:   "900",
		AvgGrowth: "3.5",
		Reasons:   []string{"Jobs", "Employment", "Education"},
	})
	if err != nil {
		t.Fatalf("GenerateCard: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != CardWidth || b.Dy() != CardHeight {
		t.Errorf("bounds = %v, want %dx%d", b, CardWidth, CardHeight)
	}
}

func TestGenerateCard_EmptyFigures(t *testing.T) {
	if _, err := GenerateCard(CardData{District: "Almora"}); err != nil {
		t.Fatalf("GenerateCard: %v", err)
	}
}

func TestCardCache_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewCardCacheWithClock(10*time.Minute, clock)

	if _, ok := cache.Get("Almora/5"); ok {
		t.Fatal("expected miss on empty cache")
	}

	cache.Set("Almora/5", []byte("png"))
	if got, ok := cache.Get("Almora/5"); !ok || string(got) != "png" {
		t.Fatalf("Get = %q, %v; want hit", got, ok)
	}

	clock.Advance(11 * time.Minute)
	if _, ok := cache.Get("Almora/5"); ok {
		t.Error("expected miss after TTL")
	}

	cache.Set("Chamoli/10", []byte("other"))
	if n := cache.Len(); n != 1 {
		t.Errorf("Len = %d, want 1 after eviction", n)
	}
}
