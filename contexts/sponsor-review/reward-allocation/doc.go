// Package rewardallocation implements reward allocation and review for
// sponsor listings inside the sponsor-review context.
//
// The module owns winner slot assignment, candidate review transitions
// (reject, spam, grant approval and completion), chunked batch transitions
// with per-chunk rollback, and the one-way publish gate that announces a
// listing's winners. Business rules live in domain/services; application use
// cases serialize work per listing and talk to storage through ports.
package rewardallocation
