/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import "time"

// ticksPerSecond is the tick resolution of Timestamp: 100ns per tick.
const ticksPerSecond = int64(10_000_000)

// epochOffsetTicks is the number of 100ns ticks between 0001-01-01 UTC and
// the Unix epoch (1970-01-01 UTC). Timestamp values are ticks since
// 0001-01-01 UTC, matching spec.md section 4.1's "100-ns ticks since
// 0001-01-01 UTC as adjusted to the reference epoch used by the format".
// The exact viewer epoch is an Open Question (spec.md section 9); this
// value is the well-known .NET DateTime tick epoch, which is the only
// documented candidate and is recorded as the chosen answer in DESIGN.md.
const epochOffsetTicks = int64(621355968000000000)

// Timestamp is a UTC instant encoded as 100-ns ticks since 0001-01-01 UTC.
type Timestamp uint64

// Now returns the current time as a Timestamp.
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts a time.Time to its tick encoding.
func FromTime(t time.Time) Timestamp {
	u := t.UTC()
	unixTicks := u.Unix()*ticksPerSecond + int64(u.Nanosecond())/100
	return Timestamp(uint64(unixTicks + epochOffsetTicks))
}

// Time converts a Timestamp back to a time.Time in UTC.
func (ts Timestamp) Time() time.Time {
	unixTicks := int64(ts) - epochOffsetTicks
	sec := unixTicks / ticksPerSecond
	rem := unixTicks % ticksPerSecond
	return time.Unix(sec, rem*100).UTC()
}
