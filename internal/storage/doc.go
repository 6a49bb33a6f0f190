package storage

// Package storage provides the optional delivery journal.
//
// The journal records one entry per outbound notification attempt (status
// change or failure report) so an operator can reconstruct what was sent,
// and what failed to send, after the fact. The poll loop itself never reads
// from it; the poll cursor lives only in memory.
