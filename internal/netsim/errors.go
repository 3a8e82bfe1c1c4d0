package netsim

import "errors"

// ErrUnknownTarget is wrapped into the error a proxy's Serialize returns
// when asked about a ReplicationTarget that proxy does not serve. The
// orchestrator's own Serialize/DirtyCount panic on a target they do not
// recognize instead (a programming error, §7).
var ErrUnknownTarget = errors.New("netsim: unknown replication target")

// ErrRollbackEvicted signals that an authoritative reconcile referenced a
// keyframe older than Sync's tail: prediction cannot be trusted and must
// be dropped, reseeding from the authoritative state as a new origin.
var ErrRollbackEvicted = errors.New("netsim: rollback target keyframe has been evicted from the sync buffer")

// ErrMissingPriorSync signals that the input consumption loop's PrevSync
// lookup failed. The continuity step is supposed to make this unreachable;
// seeing it means an invariant was broken elsewhere.
var ErrMissingPriorSync = errors.New("netsim: missing prior sync state for input consumption")
