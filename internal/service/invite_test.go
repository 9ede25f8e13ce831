package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ImmichDrop/internal/repo"
	"ImmichDrop/model"
)

func seedInvite(t *testing.T, inv *model.Invite) *model.Invite {
	t.Helper()
	if inv.Token == "" {
		inv.Token = "tok-" + fmt.Sprint(time.Now().UnixNano())
	}
	if err := repo.Db.Create(inv).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	return inv
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Reason
}

func TestSingleUseClaimConcurrentExclusivity(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	inv := seedInvite(t, &model.Invite{Token: "single", MaxUses: 1})

	const sessions = 8
	var wg sync.WaitGroup
	outcomes := make([]ClaimOutcome, sessions)
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := TryClaimSingleUse(ctx, inv.Token, fmt.Sprintf("session-%d", i))
			if err != nil {
				t.Errorf("claim %d: %v", i, err)
				return
			}
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	claimed := 0
	for _, out := range outcomes {
		switch out {
		case Claimed:
			claimed++
		case ClaimedByOther:
		default:
			t.Fatalf("unexpected outcome %v", out)
		}
	}
	if claimed != 1 {
		t.Fatalf("%d sessions claimed, want exactly 1", claimed)
	}
}

func TestSingleUseSameSessionRetry(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	inv := seedInvite(t, &model.Invite{Token: "retry", MaxUses: 1})

	if out, err := TryClaimSingleUse(ctx, inv.Token, "sess-a"); err != nil || out != Claimed {
		t.Fatalf("first claim: out=%v err=%v", out, err)
	}
	if out, err := TryClaimSingleUse(ctx, inv.Token, "sess-a"); err != nil || out != AlreadyOwnedBySession {
		t.Fatalf("retry by owner: out=%v err=%v", out, err)
	}
	if out, err := TryClaimSingleUse(ctx, inv.Token, "sess-b"); err != nil || out != ClaimedByOther {
		t.Fatalf("claim by other: out=%v err=%v", out, err)
	}

	// the owning session still validates; others are rejected
	if _, err := ValidateInvite(ctx, inv.Token, "sess-a", false); err != nil {
		t.Fatalf("owner revalidation: %v", err)
	}
	_, err := ValidateInvite(ctx, inv.Token, "sess-b", false)
	if reasonOf(t, err) != ReasonInviteClaimed {
		t.Fatalf("wrong reason: %v", err)
	}
}

func TestMultiUseExactlyN(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	inv := seedInvite(t, &model.Invite{Token: "counted", MaxUses: 3})

	const attempts = 10
	var wg sync.WaitGroup
	outcomes := make([]ClaimOutcome, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := ConsumeMultiUse(ctx, inv.Token)
			if err != nil {
				t.Errorf("consume %d: %v", i, err)
				return
			}
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	consumed := 0
	for _, out := range outcomes {
		if out == Consumed {
			consumed++
		}
	}
	if consumed != 3 {
		t.Fatalf("%d consumes succeeded, want 3", consumed)
	}

	var got model.Invite
	repo.Db.Where("token = ?", inv.Token).First(&got)
	if got.UsedCount != 3 {
		t.Fatalf("used_count = %d, want 3", got.UsedCount)
	}
}

func TestMultiUseRefund(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	inv := seedInvite(t, &model.Invite{Token: "refund", MaxUses: 2})

	if out, _ := ConsumeMultiUse(ctx, inv.Token); out != Consumed {
		t.Fatal("first consume rejected")
	}
	if out, _ := ConsumeMultiUse(ctx, inv.Token); out != Consumed {
		t.Fatal("second consume rejected")
	}
	if out, _ := ConsumeMultiUse(ctx, inv.Token); out != Exhausted {
		t.Fatal("third consume should be exhausted")
	}

	ReleaseMultiUse(ctx, inv.Token)
	if out, _ := ConsumeMultiUse(ctx, inv.Token); out != Consumed {
		t.Fatal("consume after refund rejected")
	}
}

func TestUnlimitedInviteNeverExhausts(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	inv := seedInvite(t, &model.Invite{Token: "unlimited", MaxUses: -1})
	for i := 0; i < 25; i++ {
		out, err := ConsumeMultiUse(ctx, inv.Token)
		if err != nil || out != Consumed {
			t.Fatalf("consume %d: out=%v err=%v", i, out, err)
		}
	}
}

func TestExpiryBeatsRemainingUses(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)
	inv := seedInvite(t, &model.Invite{Token: "expired", MaxUses: 5, ExpiresAt: &past})

	_, err := ValidateInvite(ctx, inv.Token, "sess", false)
	if reasonOf(t, err) != ReasonInviteExpired {
		t.Fatalf("wrong reason: %v", err)
	}
	var got model.Invite
	repo.Db.Where("token = ?", inv.Token).First(&got)
	if got.UsedCount != 0 {
		t.Fatalf("expired validation consumed usage: %d", got.UsedCount)
	}
}

func TestValidateInviteReasonCodes(t *testing.T) {
	setupDB(t)
	ctx := context.Background()

	_, err := ValidateInvite(ctx, "nope", "sess", false)
	if reasonOf(t, err) != ReasonInvalidInvite {
		t.Fatalf("unknown token: %v", err)
	}

	disabled := seedInvite(t, &model.Invite{Token: "off", MaxUses: -1, Disabled: true})
	_, err = ValidateInvite(ctx, disabled.Token, "sess", false)
	if reasonOf(t, err) != ReasonInviteDisabled {
		t.Fatalf("disabled: %v", err)
	}

	locked := seedInvite(t, &model.Invite{Token: "locked", MaxUses: -1, PasswordHash: "$2a$10$x"})
	_, err = ValidateInvite(ctx, locked.Token, "sess", false)
	if reasonOf(t, err) != ReasonInvitePasswordRequired {
		t.Fatalf("password gate: %v", err)
	}
	// an authorized session passes the gate
	if _, err := ValidateInvite(ctx, locked.Token, "sess", true); err != nil {
		t.Fatalf("authorized session rejected: %v", err)
	}

	spent := seedInvite(t, &model.Invite{Token: "spent", MaxUses: 2, UsedCount: 2})
	_, err = ValidateInvite(ctx, spent.Token, "sess", false)
	if reasonOf(t, err) != ReasonInviteExhausted {
		t.Fatalf("exhausted: %v", err)
	}
}

func TestValidateInviteReservesMultiUse(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	inv := seedInvite(t, &model.Invite{Token: "reserve", MaxUses: 2})

	grant, err := ValidateInvite(ctx, inv.Token, "sess", false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !grant.MultiUse {
		t.Fatal("grant not marked refundable")
	}
	var got model.Invite
	repo.Db.Where("token = ?", inv.Token).First(&got)
	if got.UsedCount != 1 {
		t.Fatalf("used_count = %d after reservation, want 1", got.UsedCount)
	}
}
