// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package video drives requests to video generation assistants.
//
// The server waits a bounded time for a render. When that wait runs out
// the response carries status "timeout" and a task id; a Poller then
// checks the task at a fixed pace until it succeeds, fails or the local
// deadline passes.
package video
