// Package mono provides the virtual-time type shared by the scheduler,
// the wire protocol's actor state, and stats sampling.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// Time is a point on the simulation's timeline, expressed as nanoseconds
// since the simulation's epoch (t=0). sim.Clock produces these stamps
// from the wall-clock time elapsed since the clock was created.
type Time int64

const Zero Time = 0

func (t Time) Add(d time.Duration) Time { return t + Time(d) }
func (t Time) Sub(o Time) time.Duration { return time.Duration(t - o) }
func (t Time) Before(o Time) bool       { return t < o }
func (t Time) After(o Time) bool        { return t > o }
func (t Time) Duration() time.Duration  { return time.Duration(t) }

func FromDuration(d time.Duration) Time { return Time(d) }
