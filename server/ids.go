package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

// idSeq disambiguates ids minted within the same millisecond. Ids are opaque
// strings of the form <prefix>-<unixmilli>-<seq>, unique within a process
// lifetime and never reused.
var idSeq atomic.Uint64

func newID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixMilli(), idSeq.Add(1))
}

func nowISO() string { return time.Now().UTC().Format(time.RFC3339) }
