package main

import (
	"testing"

	"dinein_order/config"
)

func TestImageURL(t *testing.T) {
	if got := imageURL(nil); got.BaseURL != "" || got.Apply("/img/1.png") != "/img/1.png" {
		t.Fatalf("nil config: %+v", got)
	}
	got := imageURL(&config.ImageConfig{BaseURL: "https://cdn.example.com"})
	if got.Apply("img/1.png") != "https://cdn.example.com/img/1.png" {
		t.Fatalf("apply=%q", got.Apply("img/1.png"))
	}
}
