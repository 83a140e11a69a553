package ops

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

var startTime = time.Now()

// Stats is a snapshot of poll loop progress.
type Stats struct {
	Processed  int64
	Replied    int64
	SendErrors int64
	Offset     int64
	OffsetSet  bool
}

// StatusOp reports uptime and loop progress.
type StatusOp struct {
	// Stats is optional; when nil only process details are reported.
	Stats func() Stats
}

func (s *StatusOp) Name() string        { return "status" }
func (s *StatusOp) Description() string { return "Show bot status" }

func (s *StatusOp) Execute(_ context.Context, _ string) (string, error) {
	uptime := time.Since(startTime).Truncate(time.Second)

	var b strings.Builder
	fmt.Fprintf(&b, "Status: OK\nUptime: %s\nGo: %s\nGoroutines: %d",
		uptime, runtime.Version(), runtime.NumGoroutine())

	if s.Stats != nil {
		st := s.Stats()
		offset := "unset"
		if st.OffsetSet {
			offset = fmt.Sprintf("%d", st.Offset)
		}
		fmt.Fprintf(&b, "\nProcessed: %d\nReplied: %d\nSend errors: %d\nOffset: %s",
			st.Processed, st.Replied, st.SendErrors, offset)
	}
	return b.String(), nil
}
