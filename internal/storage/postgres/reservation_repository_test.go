package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
	"github.com/hlafethi/coworkmy-booking/internal/testutil"
)

func TestReservationRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewReservationRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	tomorrow := now.Add(24 * time.Hour)

	newReservation := func(spaceID string, start, end time.Time) domain.Reservation {
		return domain.Reservation{
			ID:            uuid.NewString(),
			SpaceID:       spaceID,
			OwnerID:       "user-1",
			Interval:      domain.Interval{Start: start, End: end},
			Price:         2000,
			Currency:      "EUR",
			Status:        domain.ReservationHeld,
			HoldExpiresAt: now.Add(15 * time.Minute),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}

	t.Run("LockSpace maps missing and inactive spaces", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		spaceID := testutil.InsertSpace(t, ctx, pool, "Open desk", 1000)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.LockSpace(txCtx, spaceID)
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		missing := "00000000-0000-0000-0000-000000000001"
		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.LockSpace(txCtx, missing)
		})
		if err != domain.ErrSpaceNotFound {
			t.Fatalf("expected ErrSpaceNotFound, got %v", err)
		}

		if _, err := pool.Exec(ctx, `UPDATE spaces SET active = FALSE WHERE id = $1`, spaceID); err != nil {
			t.Fatalf("deactivate space: %v", err)
		}
		err = repo.WithTx(ctx, func(txCtx context.Context) error {
			return repo.LockSpace(txCtx, spaceID)
		})
		if err != domain.ErrSpaceInactive {
			t.Fatalf("expected ErrSpaceInactive, got %v", err)
		}

		if err := repo.LockSpace(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("CreateReservation enforces the exclusion constraint", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		spaceID := testutil.InsertSpace(t, ctx, pool, "Open desk", 1000)

		first := newReservation(spaceID, tomorrow, tomorrow.Add(2*time.Hour))
		if err := repo.CreateReservation(ctx, first); err != nil {
			t.Fatalf("first insert: %v", err)
		}

		// Overlapping interval hits the gist constraint.
		overlap := newReservation(spaceID, tomorrow.Add(time.Hour), tomorrow.Add(3*time.Hour))
		if err := repo.CreateReservation(ctx, overlap); err != domain.ErrIntervalConflict {
			t.Fatalf("expected ErrIntervalConflict, got %v", err)
		}

		// Touching endpoints do not overlap under half-open semantics.
		adjacent := newReservation(spaceID, tomorrow.Add(2*time.Hour), tomorrow.Add(3*time.Hour))
		if err := repo.CreateReservation(ctx, adjacent); err != nil {
			t.Fatalf("adjacent insert: %v", err)
		}

		// A cancelled reservation frees its slot for the constraint too.
		cancelled := first
		cancelled.Status = domain.ReservationCancelled
		if err := repo.UpdateReservation(ctx, cancelled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		rebook := newReservation(spaceID, tomorrow, tomorrow.Add(2*time.Hour))
		if err := repo.CreateReservation(ctx, rebook); err != nil {
			t.Fatalf("rebooking freed slot: %v", err)
		}

		unknownSpace := newReservation("00000000-0000-0000-0000-000000000001", tomorrow.Add(48*time.Hour), tomorrow.Add(49*time.Hour))
		if err := repo.CreateReservation(ctx, unknownSpace); err != domain.ErrSpaceNotFound {
			t.Fatalf("expected ErrSpaceNotFound, got %v", err)
		}
	})

	t.Run("HasOverlap sees held and confirmed only", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		spaceID := testutil.InsertSpace(t, ctx, pool, "Open desk", 1000)

		res := newReservation(spaceID, tomorrow, tomorrow.Add(time.Hour))
		if err := repo.CreateReservation(ctx, res); err != nil {
			t.Fatalf("insert: %v", err)
		}

		taken, err := repo.HasOverlap(ctx, spaceID, domain.Interval{Start: tomorrow.Add(30 * time.Minute), End: tomorrow.Add(90 * time.Minute)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !taken {
			t.Fatalf("expected overlap to be detected")
		}

		taken, err = repo.HasOverlap(ctx, spaceID, domain.Interval{Start: tomorrow.Add(time.Hour), End: tomorrow.Add(2 * time.Hour)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if taken {
			t.Fatalf("adjacent interval must not count as overlap")
		}

		res.Status = domain.ReservationExpired
		if err := repo.UpdateReservation(ctx, res); err != nil {
			t.Fatalf("expire: %v", err)
		}
		taken, err = repo.HasOverlap(ctx, spaceID, domain.Interval{Start: tomorrow, End: tomorrow.Add(time.Hour)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if taken {
			t.Fatalf("expired reservations must not block the slot")
		}
	})

	t.Run("Get and Update round-trip", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		spaceID := testutil.InsertSpace(t, ctx, pool, "Open desk", 1000)

		res := newReservation(spaceID, tomorrow, tomorrow.Add(time.Hour))
		res.TierLabel = "Hourly"
		if err := repo.CreateReservation(ctx, res); err != nil {
			t.Fatalf("insert: %v", err)
		}

		got, err := repo.GetReservation(ctx, res.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Status != domain.ReservationHeld || got.TierLabel != "Hourly" || got.PaymentSessionRef != "" {
			t.Fatalf("unexpected reservation: %+v", got)
		}
		if !got.Interval.Start.Equal(res.Interval.Start) || !got.Interval.End.Equal(res.Interval.End) {
			t.Fatalf("interval mismatch: got %+v want %+v", got.Interval, res.Interval)
		}

		got.Status = domain.ReservationConfirmed
		got.PaymentSessionRef = "cs_1"
		got.UpdatedAt = now.Add(time.Minute)
		if err := repo.UpdateReservation(ctx, got); err != nil {
			t.Fatalf("update: %v", err)
		}

		updated, err := repo.GetReservation(ctx, res.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if updated.Status != domain.ReservationConfirmed || updated.PaymentSessionRef != "cs_1" {
			t.Fatalf("unexpected reservation after update: %+v", updated)
		}

		if _, err := repo.GetReservation(ctx, "00000000-0000-0000-0000-000000000001"); err != domain.ErrReservationNotFound {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
		if _, err := repo.GetReservation(ctx, "not-a-uuid"); err != domain.ErrInvalidID {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("ListOccupied orders by start", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		spaceID := testutil.InsertSpace(t, ctx, pool, "Open desk", 1000)

		late := newReservation(spaceID, tomorrow.Add(4*time.Hour), tomorrow.Add(5*time.Hour))
		early := newReservation(spaceID, tomorrow, tomorrow.Add(time.Hour))
		for _, res := range []domain.Reservation{late, early} {
			if err := repo.CreateReservation(ctx, res); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		occupied, err := repo.ListOccupied(ctx, spaceID, domain.Interval{Start: tomorrow.Add(-time.Hour), End: tomorrow.Add(24 * time.Hour)})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(occupied) != 2 {
			t.Fatalf("expected 2 intervals, got %d", len(occupied))
		}
		if !occupied[0].Start.Equal(early.Interval.Start) {
			t.Fatalf("expected ascending order, got %+v", occupied)
		}
	})

	t.Run("sweep listings pick due work in order", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		spaceID := testutil.InsertSpace(t, ctx, pool, "Open desk", 1000)

		dueHold := newReservation(spaceID, tomorrow, tomorrow.Add(time.Hour))
		dueHold.HoldExpiresAt = now.Add(-time.Minute)
		liveHold := newReservation(spaceID, tomorrow.Add(2*time.Hour), tomorrow.Add(3*time.Hour))
		elapsed := newReservation(spaceID, now.Add(-2*time.Hour), now.Add(-time.Hour))
		elapsed.Status = domain.ReservationConfirmed
		for _, res := range []domain.Reservation{dueHold, liveHold, elapsed} {
			if err := repo.CreateReservation(ctx, res); err != nil {
				t.Fatalf("insert: %v", err)
			}
		}

		expiredIDs, err := repo.ListExpiredHolds(ctx, now, 10)
		if err != nil {
			t.Fatalf("list expired: %v", err)
		}
		if len(expiredIDs) != 1 || expiredIDs[0] != dueHold.ID {
			t.Fatalf("expected only the due hold, got %v", expiredIDs)
		}

		elapsedIDs, err := repo.ListElapsedConfirmed(ctx, now, 10)
		if err != nil {
			t.Fatalf("list elapsed: %v", err)
		}
		if len(elapsedIDs) != 1 || elapsedIDs[0] != elapsed.ID {
			t.Fatalf("expected only the elapsed stay, got %v", elapsedIDs)
		}
	})
}
