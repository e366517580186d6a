// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
)

// pdfMagic opens every PDF file.
var pdfMagic = []byte("%PDF-")

/*
ValidateUpload checks a PDF upload before any extraction work starts.

Description: The declared type and extension are accepted as hints, but the bytes
must carry the PDF signature. Each rejection has its own message so callers can
tell the user what to fix.

Parameters:
  - filename: string (Client-side file name)
  - contentType: string (Declared MIME type, may be empty)
  - data: []byte (File contents)
  - maxBytes: int64 (Size ceiling)

Returns:
  - error: apperr.PayloadTooLarge, apperr.UnsupportedMediaType or a validation error
*/
func ValidateUpload(filename, contentType string, data []byte, maxBytes int64) error {

	// 1. Size ceiling
	if int64(len(data)) > maxBytes {
		return apperr.PayloadTooLarge(fmt.Sprintf("The PDF exceeds the %d MB limit", maxBytes>>20))
	}

	// 2. Declared type
	if !declaredPDF(filename, contentType) {
		return apperr.UnsupportedMediaType("Only PDF files can be imported")
	}

	// 3. Empty file
	if len(data) == 0 {
		return apperr.ValidationError("The PDF file is empty")
	}

	// 4. Signature
	if !IsPDF(data) {
		return apperr.UnsupportedMediaType("The file is not a valid PDF document")
	}

	return nil
}

// IsPDF reports whether data carries the PDF signature.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic) || http.DetectContentType(data) == constants.MimePDF
}

func declaredPDF(filename, contentType string) bool {
	if contentType != "" && contentType != "application/octet-stream" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		return err == nil && mediaType == constants.MimePDF
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
