/*
lifecycle.go - Draft/finalized state machine

PURPOSE:
  Governs the two lifecycle states of a record and who may move between
  them. A record starts in DRAFT on first write; FINALIZED locks all entry
  mutation until an authorized reopen.

TRANSITIONS:
  DRAFT     --finalize--> FINALIZED   (capability-gated)
  FINALIZED --reopen---->  DRAFT      (capability-gated)

  No other transitions exist and there is no terminal state. Records are
  never hard-deleted; they persist indefinitely in whichever state they
  end at. While FINALIZED, reconciliation fails with ErrRecordFinalized;
  reads and reports are unaffected.

AUTHORIZATION:
  Both transitions require the matching capability (admin/owner roles;
  never plain teachers). A missing capability is ErrForbidden, never a
  silent no-op.
*/
package attendance

import (
	"context"
	"fmt"
)

// Finalize moves a DRAFT record to FINALIZED.
// Fails with ErrForbidden, ErrRecordNotFound, or ErrAlreadyFinalized.
func (s *Service) Finalize(ctx context.Context, id RecordID, actor string) (*Record, error) {
	return s.transition(ctx, id, actor, CapabilityFinalize)
}

// Reopen moves a FINALIZED record back to DRAFT.
// Fails with ErrForbidden, ErrRecordNotFound, or ErrNotFinalized.
func (s *Service) Reopen(ctx context.Context, id RecordID, actor string) (*Record, error) {
	return s.transition(ctx, id, actor, CapabilityReopen)
}

func (s *Service) transition(ctx context.Context, id RecordID, actor string, capability Capability) (*Record, error) {
	allowed, err := s.Auth.HasCapability(ctx, actor, capability)
	if err != nil {
		return nil, fmt.Errorf("capability check failed: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: actor %s may not %s records", ErrForbidden, actor, capability)
	}

	rec, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	finalized := capability == CapabilityFinalize
	if rec.Finalized == finalized {
		if finalized {
			return nil, fmt.Errorf("%w: record %s", ErrAlreadyFinalized, id)
		}
		return nil, fmt.Errorf("%w: record %s", ErrNotFinalized, id)
	}

	if err := s.Store.SetFinalized(ctx, id, finalized); err != nil {
		return nil, err
	}
	rec.Finalized = finalized

	s.Log.Info().
		Str("record_id", string(id)).
		Str("actor", actor).
		Str("capability", string(capability)).
		Msg("attendance lifecycle transition")

	return rec, nil
}
