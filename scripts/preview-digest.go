package main

import (
	"fmt"

	"github.com/major-yy/event-bot/internal/digest"
	"github.com/major-yy/event-bot/internal/event"
	"github.com/major-yy/event-bot/internal/region"
)

func main() {
	// Sample events covering a few regions
	samples := []*event.Event{
		{
			Name:        "現代写真の地平",
			StartDate:   "2026-09-05",
			EndDate:     "2026-10-12",
			Venue:       "東京都写真美術館",
			OfficialURL: "https://topmuseum.example.jp/exhibition",
			Region:      region.Tokyo,
		},
		{
			Name:        "秋の夜間ライトアップ",
			StartDate:   "2026-09-20",
			EndDate:     "2026-11-30",
			Venue:       "三渓園",
			OfficialURL: "https://sankeien.example.jp/event",
			Region:      region.Kanagawa,
		},
		{
			Name:        "クラフトビールフェス",
			StartDate:   "2026-09-12",
			Venue:       "さいたま新都心",
			OfficialURL: "https://example.jp/beerfes",
			Region:      region.Saitama,
		},
	}

	comp := digest.New(10, 0)
	comp.StartPass()
	for _, ev := range samples {
		comp.Add(ev)
	}

	text := comp.Render()
	chunks := digest.Chunk(text, digest.DefaultChunkSize)

	fmt.Printf("Rendered %d events into %d chunk(s)\n\n", comp.Total(), len(chunks))
	for i, chunk := range chunks {
		fmt.Printf("--- chunk %d/%d (%d runes) ---\n", i+1, len(chunks), len([]rune(chunk)))
		fmt.Println(chunk)
	}
}
