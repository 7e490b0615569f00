package users

import (
	"context"
	"strings"
	"testing"

	xerrors "SLH-Bot/internal/errors"
)

func TestNormalizeWallet(t *testing.T) {
	const checksummed = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	for _, in := range []string{checksummed, strings.ToLower(checksummed), " " + checksummed + " "} {
		addr, err := NormalizeWallet(in)
		if err != nil {
			t.Fatalf("normalize %q: %v", in, err)
		}
		if addr.Hex() != checksummed {
			t.Fatalf("expected %s, got %s", checksummed, addr.Hex())
		}
	}
	for _, in := range []string{"0xFb6916095ca1df60bB79Ce92cE3Ea74c37c5d359", "0x123", "hello"} {
		if _, err := NormalizeWallet(in); !xerrors.IsCode(err, xerrors.CodeValidation) {
			t.Fatalf("expected %q to be rejected, got %v", in, err)
		}
	}
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	if _, err := repo.Get(ctx, 1); !xerrors.IsCode(err, xerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Upsert(ctx, User{ID: 1, Username: "dana", FirstName: "Dana"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.SetWallet(ctx, 1, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"); err != nil {
		t.Fatalf("set wallet: %v", err)
	}
	if err := repo.Upsert(ctx, User{ID: 1, Username: "dana_l"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_ = repo.MarkJoinedGroup(ctx, 1)

	u, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Username != "dana_l" || u.WalletAddress == "" || !u.JoinedGroup || u.CreatedAt.IsZero() {
		t.Fatalf("profile refresh must keep wallet and group flag, got %+v", u)
	}
}
