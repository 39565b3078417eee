package identity

import (
	"context"
	"testing"
)

func TestStaticProvider(t *testing.T) {
	p := NewStatic(Identity{ID: "u1", Name: "Ada"})
	ctx := context.Background()

	got, err := p.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if got.ID != "u1" || got.Name != "Ada" {
		t.Errorf("identity = %+v", got)
	}

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	got, err = p.Current(ctx)
	if err != nil {
		t.Fatalf("Current after sign out: %v", err)
	}
	if got != (Identity{}) {
		t.Errorf("identity after sign out = %+v, want zero", got)
	}
}
