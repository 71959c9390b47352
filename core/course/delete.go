package course

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/aulavirtual/aula/core"
)

// Delete removes a course and the uploaded files backing its materials.
//
// File cleanup always runs before the record delete: a deleted record with
// surviving blobs would leak objects nothing references anymore, while
// cleaned files with a surviving record just leave broken material links an
// operator can re-delete. When any blob deletion fails the record delete is
// withheld and a PartialCascadeError lists the objects still requiring
// cleanup; re-running the same call is safe since deleting already-absent
// objects succeeds.
func (svc *Service) Delete(ctx context.Context, courseID string) error {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return err
	}

	refs, err := svc.blob.List(ctx, materialPrefix(courseID))
	if err != nil {
		return errors.Wrap(err, "listing course materials")
	}

	// best-effort parallel deletion; failures are collected, not fatal yet
	var (
		mu        sync.Mutex
		remaining []string
		wg        sync.WaitGroup
	)
	for _, ref := range refs {
		ref := ref
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.blob.Delete(ctx, ref); err != nil {
				mu.Lock()
				remaining = append(remaining, ref.Path)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(remaining) > 0 {
		sort.Strings(remaining)
		return &core.PartialCascadeError{CourseID: courseID, Remaining: remaining}
	}

	return svc.repo.DeleteCourseByID(ctx, courseID)
}
