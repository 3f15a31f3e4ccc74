// Package nlog - see nlog.go for the rationale behind this trimmed logger.
/*
 * Copyright (c) 2023, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

func Infof(component, format string, args ...any)    { log(sevInfo, component, format, args...) }
func Warningf(component, format string, args ...any) { log(sevWarn, component, format, args...) }
func Errorf(component, format string, args ...any)    { log(sevErr, component, format, args...) }
