package product

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// AllCategories is the filter value that clears the category selection.
const AllCategories = "all"

// ListFilters is the category selection of the listing page. An empty
// selection shows every product.
type ListFilters struct {
	CategoryIDs []int64
}

// ParseListFilters reads repeated category values and an optional toggle.
// "all" anywhere clears the selection, as does toggling "all".
func ParseListFilters(categories []string, toggle string) (ListFilters, error) {
	var ids []int64
	all := false
	for _, raw := range categories {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if strings.EqualFold(part, AllCategories) {
				all = true
				continue
			}
			id, err := parseCategoryID(part)
			if err != nil {
				return ListFilters{}, err
			}
			if !containsID(ids, id) {
				ids = append(ids, id)
			}
		}
	}

	if all {
		ids = nil
	}
	filters := ListFilters{CategoryIDs: ids}
	toggle = strings.TrimSpace(toggle)
	if toggle == "" {
		return filters, nil
	}
	if strings.EqualFold(toggle, AllCategories) {
		return ListFilters{}, nil
	}
	id, err := parseCategoryID(toggle)
	if err != nil {
		return ListFilters{}, err
	}
	filters.Toggle(id)
	return filters, nil
}

// Toggle adds id to the selection or removes it when already selected.
func (f *ListFilters) Toggle(id int64) {
	for i, existing := range f.CategoryIDs {
		if existing == id {
			f.CategoryIDs = append(f.CategoryIDs[:i], f.CategoryIDs[i+1:]...)
			return
		}
	}
	f.CategoryIDs = append(f.CategoryIDs, id)
}

func (f ListFilters) All() bool {
	return len(f.CategoryIDs) == 0
}

// Filter flattens category products in category order, keeping only the
// selected categories unless the selection is empty.
func (f ListFilters) Filter(categories []catalog.Category) []catalog.Product {
	products := []catalog.Product{}
	for _, cat := range categories {
		if !f.All() && !containsID(f.CategoryIDs, cat.ID) {
			continue
		}
		products = append(products, cat.Products...)
	}
	return products
}

func parseCategoryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "category must be a positive id or \"all\"").
			WithDetails(map[string]any{"category": raw})
	}
	return id, nil
}

func containsID(ids []int64, id int64) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
