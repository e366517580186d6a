// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil extracts route parameters, JSON bodies, multipart uploads and the
caller's owner id from HTTP requests, returning [apperr.AppError] values on failure.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dast-sv/lectoflip/internal/platform/apperr"
	"github.com/dast-sv/lectoflip/internal/platform/constants"
	"github.com/dast-sv/lectoflip/internal/platform/ctxutil"
	"github.com/dast-sv/lectoflip/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/Slug) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredOwnerID returns the owner id of the authenticated caller.

Returns:
  - string: Owner UUID
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredOwnerID(request *http.Request) (string, error) {
	ownerID, ok := ctxutil.OwnerID(request.Context())
	if !ok {
		return "", apperr.Unauthorized("Authentication required")
	}
	return ownerID, nil
}

// Upload is a single file read from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

/*
FormFile reads one multipart file field, enforcing a size limit on the file.

Parameters:
  - request: *http.Request
  - field: string (Form field name)
  - maxFileBytes: int64 (Largest accepted file; the body may carry [constants.MultipartOverhead] more)

Returns:
  - *Upload: File contents and declared metadata
  - error: apperr.PayloadTooLarge when the limit is exceeded, ValidationError when the field is missing
*/
func FormFile(writer http.ResponseWriter, request *http.Request, field string, maxFileBytes int64) (*Upload, error) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxFileBytes+constants.MultipartOverhead)

	if err := request.ParseMultipartForm(constants.MultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fileTooLarge(maxFileBytes)
		}
		return nil, validate.RequiredError(field, "A multipart file is required")
	}

	file, header, err := request.FormFile(field)
	if err != nil {
		return nil, validate.RequiredError(field, "A multipart file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fileTooLarge(maxFileBytes)
		}
		return nil, err
	}
	if int64(len(data)) > maxFileBytes {
		return nil, fileTooLarge(maxFileBytes)
	}

	return &Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// fileTooLarge names the file limit in MiB, or in bytes below one MiB.
func fileTooLarge(maxFileBytes int64) *apperr.AppError {
	if maxFileBytes >= 1<<20 {
		return apperr.PayloadTooLarge(fmt.Sprintf("File exceeds the %d MiB limit", maxFileBytes>>20))
	}
	return apperr.PayloadTooLarge(fmt.Sprintf("File exceeds the %d byte limit", maxFileBytes))
}
