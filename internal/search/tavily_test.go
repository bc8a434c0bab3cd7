package search

import (
	"context"
	"testing"
)

func TestSearchRequiresAPIKey(t *testing.T) {
	c := New("")
	_, err := c.Search(context.Background(), "golang generics")
	if err == nil {
		t.Fatal("expected error when no API key is configured")
	}
}
