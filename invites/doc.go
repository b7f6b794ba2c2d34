// Package invites attributes new guild members to the invite link that brought them
// and keeps a per-inviter ledger.
//
// The platform does not report which invite a member used, so attribution works by
// diffing invite use counts: a per-guild snapshot of code→uses is kept in memory
// (SnapshotStore), and on every join the live counts are fetched and compared against
// it (Attribute). The first invite whose count went up, in fetch order, is credited.
// Two joins landing between the same pair of fetches can still be misattributed; join
// handling is serialized per guild so at least the snapshot itself never goes stale
// under concurrent handlers.
//
// The ledger (Ledger over a Store) holds the persistent InviteRecord per
// (guild, inviter): the ordered list of attributed joiners and the count, which is
// decremented when an attributed joiner leaves and never drops below zero.
package invites
