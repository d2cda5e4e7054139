package services

import (
	"sponsordesk/contexts/sponsor-review/reward-allocation/domain/entities"

	mapset "github.com/deckarep/golang-set"
)

const DefaultChunkSize = 10

// DedupeIDs drops blanks and repeats while keeping first-seen order.
func DedupeIDs(ids []string) ([]string, mapset.Set) {
	seen := mapset.NewThreadUnsafeSet()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen.Contains(id) {
			continue
		}
		seen.Add(id)
		out = append(out, id)
	}
	return out, seen
}

// Chunk splits ids into consecutive chunks of at most size ids.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

func IDSet(groups ...[]string) mapset.Set {
	set := mapset.NewThreadUnsafeSet()
	for _, ids := range groups {
		for _, id := range ids {
			set.Add(id)
		}
	}
	return set
}

// NextCursor moves the selection cursor after a batch. A cursor the batch
// did not process is kept. Otherwise it moves to the first pending
// candidate, in listing order, outside the batch, or clears.
func NextCursor(candidates []entities.Candidate, batch, processed mapset.Set, selected string) string {
	if selected == "" || !processed.Contains(selected) {
		return selected
	}
	for _, candidate := range candidates {
		if batch.Contains(candidate.CandidateID) {
			continue
		}
		if candidate.Status == entities.StatusPending {
			return candidate.CandidateID
		}
	}
	return ""
}
