// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant holds editable drafts of chat, survey and video
// assistant configurations.
//
// Drafts are read from TOML or JSON files, validated locally, and turned
// into the "config" document and knowledge-base uploads the API expects.
// Validation mirrors the server's rules so mistakes are caught before a
// multi-gigabyte upload starts.
package assistant
