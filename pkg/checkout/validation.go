package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
)

// ValidateCourseIDs rejects empty carts and carts listing the same course
// more than once. It runs before any price lookup or gateway call.
func ValidateCourseIDs(ids []uuid.UUID) error {
	if len(ids) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var duplicates []uuid.UUID
	for _, id := range ids {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item is missing a course id")
		}
		if _, ok := seen[id]; ok {
			duplicates = append(duplicates, id)
			continue
		}
		seen[id] = struct{}{}
	}
	if len(duplicates) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart lists %d course(s) more than once", len(duplicates))).WithDetails(map[string]any{
		"duplicate_course_ids": duplicates,
	})
}

// OwnedCourses returns the subset of ids already present in owned.
func OwnedCourses(ids []uuid.UUID, owned []uuid.UUID) []uuid.UUID {
	if len(owned) == 0 {
		return nil
	}
	set := make(map[uuid.UUID]struct{}, len(owned))
	for _, id := range owned {
		set[id] = struct{}{}
	}
	var hits []uuid.UUID
	for _, id := range ids {
		if _, ok := set[id]; ok {
			hits = append(hits, id)
		}
	}
	return hits
}
