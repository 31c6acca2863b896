package handlers

import (
	"context"
	"testing"

	"github.com/maruel/mdbooks/internal/server/dto"
)

func TestHealth(t *testing.T) {
	h := NewHealthHandler("v1.2.3")
	resp, err := h.Health(context.Background(), &dto.HealthRequest{})
	if err != nil {
		t.Fatalf("Health() error = %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Expected status ok, got %q", resp.Status)
	}
	if resp.Version != "v1.2.3" {
		t.Errorf("Expected version v1.2.3, got %q", resp.Version)
	}
}
