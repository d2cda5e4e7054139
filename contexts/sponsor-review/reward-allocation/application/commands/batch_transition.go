package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "sponsordesk/contexts/sponsor-review/reward-allocation/application"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"
	domainerrors "sponsordesk/contexts/sponsor-review/reward-allocation/domain/errors"
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/services"
	"sponsordesk/contexts/sponsor-review/reward-allocation/ports"
	eventsv1 "sponsordesk/contracts/gen/events/v1"
)

type BatchTransition string

const (
	TransitionReject BatchTransition = "reject"
	TransitionSpam   BatchTransition = "spam"
)

type BatchTransitionCommand struct {
	ListingID      string
	ActorID        string
	IdempotencyKey string
	Transition     BatchTransition
	CandidateIDs   []string
	ChunkSize      int
	// SelectedCandidateID is the caller's selection cursor before the batch.
	SelectedCandidateID string
}

type BatchFailure struct {
	CandidateID string `json:"candidate_id"`
	Reason      string `json:"reason"`
}

type BatchTransitionResult struct {
	Requested       int            `json:"requested"`
	Succeeded       []string       `json:"succeeded"`
	Failed          []BatchFailure `json:"failed"`
	Skipped         []string       `json:"skipped"`
	ChunksConfirmed int            `json:"chunks_confirmed"`
	Halted          bool           `json:"halted"`
	// SelectedCandidateID is the cursor after the batch, empty when cleared.
	SelectedCandidateID string `json:"selected_candidate_id"`
	Replayed            bool   `json:"replayed"`
}

// BatchTransitionUseCase applies one transition to many candidates in
// sequential chunks. Each chunk is applied to the working view, confirmed
// with one SaveCandidates call and rolled back alone when confirmation
// fails, which also stops the batch. Confirmed chunks stay applied.
type BatchTransitionUseCase struct {
	Listings       ports.ListingRepository
	Candidates     ports.CandidateStore
	Outbox         ports.OutboxWriter
	Idempotency    ports.IdempotencyStore
	Locks          *application.ListingLocks
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	ChunkSize      int
	ChunkTimeout   time.Duration
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc BatchTransitionUseCase) Execute(ctx context.Context, cmd BatchTransitionCommand) (BatchTransitionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	listingID := strings.TrimSpace(cmd.ListingID)
	if listingID == "" {
		return BatchTransitionResult{}, domainerrors.ErrInvalidRequest
	}
	if cmd.Transition != TransitionReject && cmd.Transition != TransitionSpam {
		return BatchTransitionResult{}, domainerrors.ErrInvalidTransitionKind
	}
	ids, batch := services.DedupeIDs(trimIDs(cmd.CandidateIDs))
	if len(ids) == 0 {
		return BatchTransitionResult{}, domainerrors.ErrInvalidRequest
	}

	now := resolveNow(uc.Clock)
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashBatchCommand(listingID, cmd.Transition, ids, cmd.ChunkSize)
	if idempotencyKey != "" && uc.Idempotency != nil {
		record, found, err := uc.Idempotency.Get(ctx, idempotencyKey, now)
		if err != nil {
			return BatchTransitionResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return BatchTransitionResult{}, domainerrors.ErrIdempotencyConflict
			}
			var replayed BatchTransitionResult
			if err := json.Unmarshal(record.Payload, &replayed); err != nil {
				return BatchTransitionResult{}, err
			}
			replayed.Replayed = true
			return replayed, nil
		}
	}

	release, ok := uc.Locks.TryAcquire(listingID)
	if !ok {
		logger.Warn("batch transition refused while another is running",
			"event", "reward_allocation_batch_in_progress",
			"module", "sponsor-review/reward-allocation",
			"layer", "application",
			"listing_id", listingID,
		)
		return BatchTransitionResult{}, domainerrors.ErrOperationInProgress
	}
	defer release()

	alloc, err := loadAllocator(ctx, uc.Listings, uc.Candidates, listingID, now)
	if err != nil {
		return BatchTransitionResult{}, err
	}
	if cmd.Transition == TransitionReject && alloc.Listing().IsWinnersAnnounced {
		return BatchTransitionResult{}, domainerrors.ErrListingAnnounced
	}

	chunkSize := uc.resolveChunkSize(cmd.ChunkSize)
	logger.Info("batch transition started",
		"event", "reward_allocation_batch_started",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"listing_id", listingID,
		"transition", string(cmd.Transition),
		"candidate_count", len(ids),
		"chunk_size", chunkSize,
	)

	sm := services.NewStateMachine(alloc)
	result := BatchTransitionResult{
		Requested: len(ids),
		Succeeded: make([]string, 0, len(ids)),
		Failed:    make([]BatchFailure, 0),
		Skipped:   make([]string, 0),
	}
	chunks := services.Chunk(ids, chunkSize)
	for index, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			result.Halted = true
			result.Skipped = append(result.Skipped, flatten(chunks[index:])...)
			logger.Warn("batch transition abandoned between chunks",
				"event", "reward_allocation_batch_abandoned",
				"module", "sponsor-review/reward-allocation",
				"layer", "application",
				"listing_id", listingID,
				"chunk_index", index,
				"error", err.Error(),
			)
			break
		}

		snapshot := make([]entities.Candidate, 0, len(chunk))
		for _, id := range chunk {
			if candidate, ok := alloc.Candidate(id); ok {
				snapshot = append(snapshot, candidate)
			}
		}

		applied := make([]string, 0, len(chunk))
		for _, id := range chunk {
			if err := applyTransition(sm, cmd.Transition, id); err != nil {
				result.Failed = append(result.Failed, BatchFailure{CandidateID: id, Reason: ReasonCode(err)})
				continue
			}
			applied = append(applied, id)
		}
		if len(applied) == 0 {
			continue
		}

		changed := make([]entities.Candidate, 0, len(applied))
		for _, id := range applied {
			candidate, _ := alloc.Candidate(id)
			changed = append(changed, candidate)
		}
		if err := uc.confirmChunk(ctx, changed); err != nil {
			alloc.Restore(snapshot)
			for _, id := range applied {
				result.Failed = append(result.Failed, BatchFailure{CandidateID: id, Reason: ReasonCode(err)})
			}
			result.Halted = true
			result.Skipped = append(result.Skipped, flatten(chunks[index+1:])...)
			logger.Error("batch chunk confirmation failed",
				"event", "reward_allocation_batch_chunk_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "application",
				"listing_id", listingID,
				"chunk_index", index,
				"rolled_back", len(applied),
				"skipped", len(result.Skipped),
				"error", err.Error(),
			)
			break
		}

		result.Succeeded = append(result.Succeeded, applied...)
		result.ChunksConfirmed++
		uc.notifyChunk(ctx, cmd, changed, now)
	}

	failedIDs := make([]string, 0, len(result.Failed))
	for _, failure := range result.Failed {
		failedIDs = append(failedIDs, failure.CandidateID)
	}
	processed := services.IDSet(result.Succeeded, failedIDs)
	result.SelectedCandidateID = services.NextCursor(alloc.Candidates(), batch, processed, strings.TrimSpace(cmd.SelectedCandidateID))

	if idempotencyKey != "" && uc.Idempotency != nil && !result.Halted {
		payload, err := json.Marshal(result)
		if err != nil {
			return BatchTransitionResult{}, err
		}
		if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:         idempotencyKey,
			RequestHash: requestHash,
			Payload:     payload,
			ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
		}); err != nil {
			logger.Warn("batch transition idempotency record failed",
				"event", "reward_allocation_batch_idempotency_put_failed",
				"module", "sponsor-review/reward-allocation",
				"layer", "application",
				"listing_id", listingID,
				"error", err.Error(),
			)
		}
	}

	logger.Info("batch transition completed",
		"event", "reward_allocation_batch_completed",
		"module", "sponsor-review/reward-allocation",
		"layer", "application",
		"listing_id", listingID,
		"transition", string(cmd.Transition),
		"succeeded_count", len(result.Succeeded),
		"failed_count", len(result.Failed),
		"skipped_count", len(result.Skipped),
		"halted", result.Halted,
	)
	return result, nil
}

// confirmChunk persists one chunk. A timeout counts as a failed chunk.
func (uc BatchTransitionUseCase) confirmChunk(ctx context.Context, changed []entities.Candidate) error {
	chunkCtx := ctx
	if uc.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		chunkCtx, cancel = context.WithTimeout(ctx, uc.ChunkTimeout)
		defer cancel()
	}
	if err := uc.Candidates.SaveCandidates(chunkCtx, changed); err != nil {
		return classifyStoreError("save_candidates", err)
	}
	return nil
}

func (uc BatchTransitionUseCase) notifyChunk(ctx context.Context, cmd BatchTransitionCommand, changed []entities.Candidate, now time.Time) {
	n := notifier{outbox: uc.Outbox, idGen: uc.IDGen, logger: uc.Logger}
	actorID := strings.TrimSpace(cmd.ActorID)
	for _, candidate := range changed {
		switch cmd.Transition {
		case TransitionReject:
			n.notify(ctx, eventsv1.EventCandidateRejected, candidate.ListingID, now, eventsv1.CandidateRejectedData{
				ListingID:   candidate.ListingID,
				CandidateID: candidate.CandidateID,
				ApplicantID: candidate.ApplicantID,
				ActorID:     actorID,
			})
		case TransitionSpam:
			n.notify(ctx, eventsv1.EventCandidateMarkedSpam, candidate.ListingID, now, eventsv1.CandidateMarkedSpamData{
				ListingID:   candidate.ListingID,
				CandidateID: candidate.CandidateID,
				ApplicantID: candidate.ApplicantID,
				ActorID:     actorID,
			})
		}
	}
}

func (uc BatchTransitionUseCase) resolveChunkSize(requested int) int {
	if requested > 0 {
		return requested
	}
	if uc.ChunkSize > 0 {
		return uc.ChunkSize
	}
	return services.DefaultChunkSize
}

func (uc BatchTransitionUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func applyTransition(sm services.StateMachine, transition BatchTransition, candidateID string) error {
	switch transition {
	case TransitionReject:
		return sm.Reject(candidateID)
	case TransitionSpam:
		return sm.MarkSpam(candidateID)
	default:
		return domainerrors.ErrInvalidTransitionKind
	}
}

func trimIDs(ids []string) []string {
	items := make([]string, 0, len(ids))
	for _, id := range ids {
		items = append(items, strings.TrimSpace(id))
	}
	return items
}

func flatten(chunks [][]string) []string {
	items := make([]string, 0)
	for _, chunk := range chunks {
		items = append(items, chunk...)
	}
	return items
}

func hashBatchCommand(listingID string, transition BatchTransition, ids []string, chunkSize int) string {
	payload, _ := json.Marshal(map[string]any{
		"listing_id":    listingID,
		"transition":    string(transition),
		"candidate_ids": ids,
		"chunk_size":    chunkSize,
	})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
