package cart

import (
	"math"
	"testing"

	"github.com/angelmondragon/storefront/pkg/catalog"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/images"
)

func strPtr(s string) *string { return &s }

func watch(id int64, price string) ProductSnapshot {
	return ProductSnapshot{ID: id, Slug: "watch", Title: "Watch", Price: price, Images: []images.Image{}}
}

func TestAddMergesSameProductAndSize(t *testing.T) {
	c := &Cart{}
	c.Add(watch(1, "10.00"), strPtr("M"), 1)
	c.Add(watch(1, "10.00"), strPtr("M"), 2)
	c.Add(watch(1, "10.00"), strPtr("L"), 1)
	c.Add(watch(1, "10.00"), nil, 1)
	c.Add(watch(1, "10.00"), strPtr(""), 1)

	if len(c.Items) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(c.Items), c.Items)
	}
	wantIDs := []string{"1-M", "1-L", "1-no-size"}
	for i, id := range wantIDs {
		if c.Items[i].ID != id {
			t.Fatalf("line %d: expected id %s, got %s", i, id, c.Items[i].ID)
		}
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", c.Items[0].Quantity)
	}
	if c.Items[2].Quantity != 2 || c.Items[2].SelectedSize != nil {
		t.Fatalf("empty size should merge into no-size line, got %+v", c.Items[2])
	}
}

func TestAddDefaultsQuantity(t *testing.T) {
	c := &Cart{}
	item := c.Add(watch(2, "5"), nil, 0)
	if item.Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %d", item.Quantity)
	}
}

func TestQuantityStaysWithinBounds(t *testing.T) {
	c := &Cart{}
	c.Add(watch(1, "10"), nil, math.MaxInt)
	item := c.Add(watch(1, "10"), nil, 2)
	if item.Quantity != MaxQuantity {
		t.Fatalf("expected merged quantity capped at %d, got %d", MaxQuantity, item.Quantity)
	}

	c.Add(watch(2, "10"), nil, MaxQuantity-1)
	c.Add(watch(2, "10"), nil, math.MaxInt)
	if got, _ := c.Find("2-no-size"); got.Quantity != MaxQuantity {
		t.Fatalf("expected cap on large merge, got %d", got.Quantity)
	}

	c.UpdateQuantity("1-no-size", math.MaxInt)
	if got, _ := c.Find("1-no-size"); got.Quantity != MaxQuantity {
		t.Fatalf("expected update capped at %d, got %d", MaxQuantity, got.Quantity)
	}
	if c.ItemsCount() != 2*MaxQuantity {
		t.Fatalf("expected count %d, got %d", 2*MaxQuantity, c.ItemsCount())
	}
	for _, li := range c.Items {
		if li.Quantity < 1 {
			t.Fatalf("line %s dropped below 1: %d", li.ID, li.Quantity)
		}
	}
}

func TestRemoveAndUpdateQuantity(t *testing.T) {
	c := &Cart{}
	c.Add(watch(1, "10"), nil, 1)
	c.Add(watch(2, "20"), nil, 1)
	c.Add(watch(3, "30"), nil, 1)

	c.Remove("missing")
	if len(c.Items) != 3 {
		t.Fatalf("removing unknown id should be a no-op")
	}

	c.UpdateQuantity("2-no-size", 5)
	if item, _ := c.Find("2-no-size"); item.Quantity != 5 {
		t.Fatalf("expected absolute quantity 5, got %d", item.Quantity)
	}

	c.UpdateQuantity("1-no-size", 0)
	c.UpdateQuantity("3-no-size", -2)
	if len(c.Items) != 1 || c.Items[0].ID != "2-no-size" {
		t.Fatalf("expected non-positive quantities to remove lines, got %+v", c.Items)
	}

	c.UpdateQuantity("missing", 4)
	if len(c.Items) != 1 {
		t.Fatalf("updating unknown id should be a no-op")
	}

	c.Clear()
	if len(c.Items) != 0 || c.Items == nil {
		t.Fatalf("expected empty non-nil items after clear")
	}
}

func TestTotalsUseDecimalArithmetic(t *testing.T) {
	c := &Cart{}
	c.Add(watch(1, "0.10"), nil, 3)
	c.Add(watch(2, "19.99"), nil, 2)

	total, err := c.Total()
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.StringFixed(2) != "40.28" {
		t.Fatalf("expected 40.28, got %s", total.StringFixed(2))
	}
	if c.ItemsCount() != 5 {
		t.Fatalf("expected 5 items, got %d", c.ItemsCount())
	}

	empty := &Cart{}
	if total, _ := empty.Total(); !total.IsZero() || empty.ItemsCount() != 0 {
		t.Fatalf("empty cart should total zero")
	}
}

func TestTotalsExamples(t *testing.T) {
	cases := []struct {
		name      string
		price     string
		size      *string
		quantity  int
		wantID    string
		wantTotal string
		wantCount int
	}{
		{name: "sized line", price: "29.99", size: strPtr("M"), quantity: 2, wantID: "1-M", wantTotal: "59.98", wantCount: 2},
		{name: "unsized line", price: "12.50", quantity: 3, wantID: "1-no-size", wantTotal: "37.50", wantCount: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Cart{}
			item := c.Add(watch(1, tc.price), tc.size, tc.quantity)
			if item.ID != tc.wantID {
				t.Fatalf("expected id %s, got %s", tc.wantID, item.ID)
			}
			total, err := c.Total()
			if err != nil {
				t.Fatalf("total: %v", err)
			}
			if total.StringFixed(2) != tc.wantTotal || c.ItemsCount() != tc.wantCount {
				t.Fatalf("expected %s/%d, got %s/%d", tc.wantTotal, tc.wantCount, total.StringFixed(2), c.ItemsCount())
			}
		})
	}
}

func TestTotalRejectsInvalidPrice(t *testing.T) {
	c := &Cart{}
	c.Add(watch(1, "10"), nil, 1)
	c.Add(watch(9, "abc"), nil, 1)

	_, err := c.Total()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["item_id"] != "9-no-size" {
		t.Fatalf("expected failing line in details, got %#v", typed.Details())
	}
}

func TestSnapshotOf(t *testing.T) {
	snap := SnapshotOf(catalog.Product{
		ID:       4,
		Slug:     "ga-2100",
		Title:    "GA-2100",
		Price:    "99.00",
		Category: &catalog.CategoryRef{ID: 2, Name: "Analog"},
		Sizes:    []catalog.Size{{ID: 1, Size: "M"}},
	})
	if snap.Category == nil || snap.Category.Name != "Analog" || snap.Images == nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestBuildView(t *testing.T) {
	c := &Cart{}
	p := watch(1, "12.5")
	p.Images = []images.Image{{URL: "/raw.png", Formats: &images.Formats{Small: &images.Format{URL: "/small.png"}}}}
	c.Add(p, strPtr("M"), 2)
	c.Add(watch(2, "3"), nil, 1)

	view, err := BuildView(c, "https://cms.test")
	if err != nil {
		t.Fatalf("build view: %v", err)
	}
	if view.Total != "28.00" || view.ItemsCount != 3 {
		t.Fatalf("unexpected totals %+v", view)
	}
	if view.Items[0].LineTotal != "25.00" || view.Items[0].ImageURL != "https://cms.test/small.png" {
		t.Fatalf("unexpected first line %+v", view.Items[0])
	}
	if view.Items[1].ImageURL != images.Placeholder {
		t.Fatalf("expected placeholder for imageless line, got %q", view.Items[1].ImageURL)
	}
}
