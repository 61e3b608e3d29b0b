package service

import (
	"sort"
	"strings"
	"time"

	"github.com/attendlabs/attendd/internal/attend/types"
)

// Classify groups raw scans by (person, calendar date in loc) and derives
// per-day check-in/check-out records.
//
// Each group contributes exactly one CHECK_IN from its earliest scan.  A
// CHECK_OUT from the latest scan is added only when the group has more than
// one scan and the whole-minute gap between earliest and latest strictly
// exceeds gapMinutes; shorter spreads count as a single momentary presence.
// Scans between earliest and latest are discarded.
//
// Grouping is insensitive to input order and the output is deterministic
// for the same input: ties on OccurredAt keep input order (stable sort) and
// groups are emitted in sorted key order.
//
// Malformed scans (blank person ref or zero timestamp) are discarded before
// grouping; a bad record never fails the pass.
func Classify(events []types.ScanEvent, gapMinutes int, loc *time.Location) []types.Record {
	if loc == nil {
		loc = time.Local
	}

	groups := make(map[string][]types.ScanEvent)
	for _, ev := range events {
		if strings.TrimSpace(ev.PersonRef) == "" || ev.OccurredAt.IsZero() {
			continue
		}
		key := ev.PersonRef + "_" + ev.OccurredAt.In(loc).Format("2006-01-02")
		groups[key] = append(groups[key], ev)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []types.Record
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].OccurredAt.Before(group[j].OccurredAt)
		})

		if len(group) == 0 {
			continue
		}

		first := group[0]
		out = append(out, types.Record{
			PersonID:  first.PersonRef,
			Timestamp: first.OccurredAt,
			Kind:      types.KindCheckIn,
			DeviceID:  first.DeviceID,
		})

		if len(group) > 1 {
			last := group[len(group)-1]

			// Whole elapsed minutes, truncated: a 5m59s spread is 5
			// minutes and does not clear a threshold of 5.
			gap := int(last.OccurredAt.Sub(first.OccurredAt) / time.Minute)
			if gap > gapMinutes {
				out = append(out, types.Record{
					PersonID:  last.PersonRef,
					Timestamp: last.OccurredAt,
					Kind:      types.KindCheckOut,
					DeviceID:  last.DeviceID,
				})
			}
		}
	}

	return out
}
