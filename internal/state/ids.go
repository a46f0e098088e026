package state

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	sessionID = uuid.New()
	strokeSeq uint64
)

// SessionID identifies this overlay process in logs.
func SessionID() string { return sessionID.String() }

// Stroke IDs are derived from the session so they are stable within a run
// and never collide across runs.
func newStrokeID() string {
	n := atomic.AddUint64(&strokeSeq, 1)
	return uuid.NewSHA1(sessionID, []byte(strconv.FormatUint(n, 10))).String()
}
