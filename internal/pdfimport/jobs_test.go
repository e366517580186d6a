// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pdfimport_test

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dast-sv/lectoflip/internal/pdfimport"
)

const owner = "0190f7a6-0000-7000-8000-000000000001"

func newJobs(t *testing.T, rasterizer *fakeRasterizer) (*pdfimport.Jobs, *countingStore) {
	t.Helper()
	store := newCountingStore()
	extractor := pdfimport.NewExtractor(rasterizer, store, 0, discardLogger())
	jobs := pdfimport.NewJobs(extractor, time.Hour, discardLogger())
	t.Cleanup(func() { _ = jobs.Close(context.Background()) })
	return jobs, store
}

func waitForState(t *testing.T, jobs *pdfimport.Jobs, id string, state pdfimport.State) pdfimport.Snapshot {
	t.Helper()
	var view pdfimport.Snapshot
	require.Eventually(t, func() bool {
		var err error
		view, err = jobs.Get(owner, id)
		return err == nil && view.State == state
	}, 2*time.Second, 5*time.Millisecond)
	return view
}

func TestJobs_StartToReady(t *testing.T) {
	jobs, _ := newJobs(t, &fakeRasterizer{pages: 3, size: image.Pt(30, 40)})

	started, err := jobs.Start(owner, "cuento.pdf", samplePDF)
	require.NoError(t, err)
	assert.Equal(t, pdfimport.StateExtracting, started.State)

	ready := waitForState(t, jobs, started.ID, pdfimport.StateReady)
	assert.Equal(t, 3, ready.PageCount)
	assert.Len(t, ready.Pages, 3)
	assert.Equal(t, 30, ready.Width)
	assert.Equal(t, 40, ready.Height)

	// Jobs are private to their owner.
	_, err = jobs.Get("someone-else", started.ID)
	assert.ErrorIs(t, err, pdfimport.ErrUnknownJob)
}

func TestJobs_FailureThenReset(t *testing.T) {
	jobs, store := newJobs(t, &fakeRasterizer{pages: 2, size: image.Pt(10, 10), failAt: 2})

	started, err := jobs.Start(owner, "roto.pdf", samplePDF)
	require.NoError(t, err)

	failed := waitForState(t, jobs, started.ID, pdfimport.StateFailed)
	assert.NotEmpty(t, failed.Error)
	assert.Empty(t, failed.Pages)
	assert.Equal(t, 1, store.totalRevokes())

	idle, err := jobs.Reset(context.Background(), owner, started.ID)
	require.NoError(t, err)
	assert.Equal(t, pdfimport.StateIdle, idle.State)
}

/*
TestJobs_ReplaceReleasesPreviousPages checks the reset and re-extract cycle: the first
document's URLs are revoked exactly once and the second document's stay alive.
*/
func TestJobs_ReplaceReleasesPreviousPages(t *testing.T) {
	jobs, store := newJobs(t, &fakeRasterizer{pages: 2, size: image.Pt(10, 10)})

	started, err := jobs.Start(owner, "uno.pdf", samplePDF)
	require.NoError(t, err)
	first := waitForState(t, jobs, started.ID, pdfimport.StateReady)

	_, err = jobs.Replace(context.Background(), owner, started.ID, "dos.pdf", samplePDF)
	require.NoError(t, err)
	second := waitForState(t, jobs, started.ID, pdfimport.StateReady)
	assert.Equal(t, "dos.pdf", second.Filename)

	for _, extracted := range first.Pages {
		assert.Equal(t, 1, store.revokeCount(extracted.ImageURL))
	}
	for _, extracted := range second.Pages {
		assert.Equal(t, 0, store.revokeCount(extracted.ImageURL))
	}
	assert.Equal(t, 2, store.Len())
}

func TestJobs_BusyWhileExtracting(t *testing.T) {
	gate := make(chan struct{})
	jobs, _ := newJobs(t, &fakeRasterizer{pages: 1, size: image.Pt(10, 10), gate: gate})

	started, err := jobs.Start(owner, "lento.pdf", samplePDF)
	require.NoError(t, err)

	assert.ErrorIs(t, jobs.Discard(context.Background(), owner, started.ID), pdfimport.ErrJobBusy)
	_, err = jobs.Reset(context.Background(), owner, started.ID)
	assert.ErrorIs(t, err, pdfimport.ErrJobBusy)
	_, err = jobs.BeginSave(owner, started.ID)
	assert.ErrorIs(t, err, pdfimport.ErrJobBusy)

	close(gate)
	waitForState(t, jobs, started.ID, pdfimport.StateReady)
}

/*
TestJobs_SaveLifecycle covers a failed save returning to ready and a successful one
releasing every page.
*/
func TestJobs_SaveLifecycle(t *testing.T) {
	jobs, store := newJobs(t, &fakeRasterizer{pages: 3, size: image.Pt(10, 10)})

	started, err := jobs.Start(owner, "cuento.pdf", samplePDF)
	require.NoError(t, err)
	ready := waitForState(t, jobs, started.ID, pdfimport.StateReady)

	checkout, err := jobs.BeginSave(owner, started.ID)
	require.NoError(t, err)
	assert.Equal(t, samplePDF, checkout.Source)
	assert.Len(t, checkout.Result.Extracted, 3)

	_, err = jobs.BeginSave(owner, started.ID)
	assert.ErrorIs(t, err, pdfimport.ErrJobBusy)

	jobs.AbortSave(owner, started.ID)
	waitForState(t, jobs, started.ID, pdfimport.StateReady)

	_, err = jobs.BeginSave(owner, started.ID)
	require.NoError(t, err)
	require.NoError(t, jobs.Complete(context.Background(), owner, started.ID))

	for _, extracted := range ready.Pages {
		assert.Equal(t, 1, store.revokeCount(extracted.ImageURL))
	}
	_, err = jobs.Get(owner, started.ID)
	assert.ErrorIs(t, err, pdfimport.ErrUnknownJob)
}

func TestJobs_DiscardAndClose(t *testing.T) {
	jobs, store := newJobs(t, &fakeRasterizer{pages: 2, size: image.Pt(10, 10)})

	kept, err := jobs.Start(owner, "a.pdf", samplePDF)
	require.NoError(t, err)
	dropped, err := jobs.Start(owner, "b.pdf", samplePDF)
	require.NoError(t, err)
	waitForState(t, jobs, kept.ID, pdfimport.StateReady)
	waitForState(t, jobs, dropped.ID, pdfimport.StateReady)

	require.NoError(t, jobs.Discard(context.Background(), owner, dropped.ID))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, jobs.Len())

	require.NoError(t, jobs.Close(context.Background()))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 4, store.totalRevokes())

	_, err = jobs.Start(owner, "c.pdf", samplePDF)
	assert.ErrorIs(t, err, pdfimport.ErrJobsClosed)
}

/*
TestJobs_ReplaceHoldsJobBusyWhileReleasing covers the window where Replace has detached
the previous pages but has not yet launched the new extraction. Every mutator must see a
busy job there, and every page ever stored must be revoked exactly once.
*/
func TestJobs_ReplaceHoldsJobBusyWhileReleasing(t *testing.T) {
	jobs, store := newJobs(t, &fakeRasterizer{pages: 2, size: image.Pt(10, 10)})

	started, err := jobs.Start(owner, "uno.pdf", samplePDF)
	require.NoError(t, err)
	waitForState(t, jobs, started.ID, pdfimport.StateReady)

	entered, resume := store.holdRevokes()
	replaced := make(chan error, 1)
	go func() {
		_, err := jobs.Replace(context.Background(), owner, started.ID, "dos.pdf", samplePDF)
		replaced <- err
	}()
	<-entered

	view, err := jobs.Get(owner, started.ID)
	require.NoError(t, err)
	assert.Equal(t, pdfimport.StateExtracting, view.State)
	assert.Empty(t, view.Pages)

	tests := []struct {
		name   string
		mutate func() error
	}{
		{"replace", func() error {
			_, err := jobs.Replace(context.Background(), owner, started.ID, "tres.pdf", samplePDF)
			return err
		}},
		{"reset", func() error {
			_, err := jobs.Reset(context.Background(), owner, started.ID)
			return err
		}},
		{"begin save", func() error {
			_, err := jobs.BeginSave(owner, started.ID)
			return err
		}},
		{"discard", func() error {
			return jobs.Discard(context.Background(), owner, started.ID)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.mutate(), pdfimport.ErrJobBusy)
		})
	}

	resume()
	require.NoError(t, <-replaced)
	ready := waitForState(t, jobs, started.ID, pdfimport.StateReady)
	assert.Equal(t, "dos.pdf", ready.Filename)

	require.NoError(t, jobs.Close(context.Background()))
	created := store.createdURLs()
	assert.Len(t, created, 4)
	for _, url := range created {
		assert.Equal(t, 1, store.revokeCount(url), url)
	}
	assert.Equal(t, 0, store.Len())
}
