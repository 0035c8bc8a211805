// Copyright 2026 The Tidelake Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package tidelake

// rollbackWritten deletes the physical files a failed round wrote
// speculatively. The files never became logically visible — the commit
// never succeeded — so the logical table state needs no repair. It runs on
// every failure exit after rewriting begins, including fatal (non-conflict)
// commit errors, so a failed round never leaks orphaned files.
//
// Best-effort like cleanup: individual failures are counted and reported,
// never propagated, and deleting an already-absent file is success.
func rollbackWritten(opts *Options, written []string) {
	for _, path := range written {
		deleteDataFile(opts, path, true /* rollback */)
	}
}
