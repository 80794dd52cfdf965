// one-time-pass
// Copyright 2026 Ayumu Iida
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package version

var (
	versionGit    = "development"
	versionNumber = "1.0.0"
	VersionString = "one-time-pass " + versionNumber + " (" + versionGit + ")\n"
)
