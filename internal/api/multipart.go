// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// Upload is a knowledge-base file attached to a configuration.
type Upload struct {
	// Path is read when the request is sent.
	Path string
	// Name overrides the filename sent to the server. Defaults to the
	// base name of Path.
	Name string
}

func (u Upload) filename() string {
	if u.Name != "" {
		return u.Name
	}
	return filepath.Base(u.Path)
}

// field is one plain form value, kept ordered.
type field struct {
	name, value string
}

// multipartBody streams fields and files through a pipe so large uploads
// are never buffered in memory. Each invocation opens the files afresh.
func multipartBody(fields []field, files []Upload) func() (io.Reader, string, error) {
	return func() (io.Reader, string, error) {
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)

		go func() {
			pw.CloseWithError(writeMultipart(mw, fields, files))
		}()
		return pr, mw.FormDataContentType(), nil
	}
}

func writeMultipart(mw *multipart.Writer, fields []field, files []Upload) error {
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}
	for _, u := range files {
		if err := copyFile(mw, u); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyFile(mw *multipart.Writer, u Upload) error {
	src, err := os.Open(u.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", u.Path, err)
	}
	defer src.Close()

	part, err := mw.CreateFormFile("files", u.filename())
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to upload %s: %w", u.filename(), err)
	}
	return nil
}

// configForm is the create-endpoint layout: a "config" part holding the
// JSON document plus one "files" part per upload.
func configForm(doc interface{}, files []Upload) (func() (io.Reader, string, error), error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return multipartBody([]field{{"config", string(data)}}, files), nil
}
