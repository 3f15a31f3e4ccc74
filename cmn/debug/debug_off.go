//go:build !debug

// Package debug provides cheap, build-tag-gated assertions for the
// actor invariants called out in §4.4 and §7 of the protocol spec.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package debug

func ON() bool { return false }

func Assert(_ bool, _ ...any)            {}
func Assertf(_ bool, _ string, _ ...any) {}
func AssertNoErr(_ error)                {}
