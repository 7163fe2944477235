// Copyright 2018 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gpio

import "github.com/sglow/freeflow/conn/pin"

// Well known pin functionality used when describing chip-select and
// display command/data lines in logs and diagnostics.
const (
	OUT_HIGH pin.Func = "Out/High"
	OUT_LOW  pin.Func = "Out/Low"
	IN_HIGH  pin.Func = "In/High"
	IN_LOW   pin.Func = "In/Low"
)
