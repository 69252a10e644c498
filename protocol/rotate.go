/*************************************************************************
 * Copyright 2017 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RotateMode selects the time-based rotation boundary (spec.md section
// 4.6).
type RotateMode string

const (
	RotateNone    RotateMode = "none"
	RotateHourly  RotateMode = "hourly"
	RotateDaily   RotateMode = "daily"
	RotateWeekly  RotateMode = "weekly"
	RotateMonthly RotateMode = "monthly"
)

func parseRotateMode(s string) (RotateMode, error) {
	switch RotateMode(strings.ToLower(s)) {
	case "", RotateNone:
		return RotateNone, nil
	case RotateHourly:
		return RotateHourly, nil
	case RotateDaily:
		return RotateDaily, nil
	case RotateWeekly:
		return RotateWeekly, nil
	case RotateMonthly:
		return RotateMonthly, nil
	default:
		return "", fmt.Errorf("tracekit/protocol: invalid rotate mode %q", s)
	}
}

// boundary truncates t down to the start of the rotation period it falls
// in, in UTC. Consecutive boundaries returned for a monotonically
// advancing clock are strictly increasing, which is what makes rotated
// filenames sort correctly (spec.md invariant 6, "Rotation monotonicity").
func boundary(mode RotateMode, t time.Time) time.Time {
	u := t.UTC()
	switch mode {
	case RotateHourly:
		return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), 0, 0, 0, time.UTC)
	case RotateDaily:
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	case RotateWeekly:
		d := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		// ISO week start: Monday. time.Weekday Sunday==0.
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case RotateMonthly:
		return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

const boundaryFormat = "20060102T150405Z"

// rotatedFilename encodes boundary t into base's filename, just before
// the extension (spec.md section 4.6: "a new file is opened whose name
// encodes the new boundary timestamp").
func rotatedFilename(base string, t time.Time) string {
	dir, file := filepath.Split(base)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem, t.UTC().Format(boundaryFormat), ext))
}

// parseRotatedTimestamp extracts the boundary timestamp encoded in name
// by rotatedFilename, given the original base template.
func parseRotatedTimestamp(base, name string) (time.Time, bool) {
	_, file := filepath.Split(base)
	ext := filepath.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	prefix := stem + "-"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
		return time.Time{}, false
	}
	tsStr := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
	t, err := time.Parse(boundaryFormat, tsStr)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// rotatedFile pairs a matched rotated file with its parsed boundary and
// mtime, the latter used only as the documented tie-break (spec.md
// section 4.6: "tie-break: filesystem mtime").
type rotatedFile struct {
	path  string
	ts    time.Time
	mtime time.Time
}

// pruneOldRotated deletes the oldest rotated files in dir matching base's
// template until at most maxParts remain (spec.md section 4.6,
// "Rotation"/prune). Files that fail to parse a timestamp are ignored,
// per the same section.
func pruneOldRotated(base string, maxParts uint32) error {
	if maxParts == 0 {
		return nil
	}
	dir := filepath.Dir(base)
	dents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var matches []rotatedFile
	for _, d := range dents {
		if d.IsDir() {
			continue
		}
		ts, ok := parseRotatedTimestamp(base, d.Name())
		if !ok {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		matches = append(matches, rotatedFile{path: filepath.Join(dir, d.Name()), ts: ts, mtime: info.ModTime()})
	}
	if uint32(len(matches)) <= maxParts {
		return nil
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].ts.Equal(matches[j].ts) {
			return matches[i].ts.Before(matches[j].ts)
		}
		return matches[i].mtime.Before(matches[j].mtime)
	})
	toDelete := matches[:uint32(len(matches))-maxParts]
	for _, m := range toDelete {
		if err := os.Remove(m.path); err != nil {
			return err
		}
	}
	return nil
}
