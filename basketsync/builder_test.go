package basketsync

import (
	"testing"
	"time"

	"github.com/mmdatafocus/areabasket_sync/models"
	"github.com/mmdatafocus/areabasket_sync/schema"
	"github.com/shopspring/decimal"
)

var buildNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func fixedBuild() BuildOptions {
	return BuildOptions{
		Now:   func() time.Time { return buildNow },
		NewID: func() string { return "abcdefghijklmnopqr" },
	}
}

func TestBuild_Price(t *testing.T) {
	cases := []struct {
		name   string
		merged schema.Document
		group  string
		want   string
	}{
		{"override wins", schema.Document{"price": 10, "customerGroupPrices": map[string]any{"ROT": 12.5}}, "", "12.5"},
		{"base without group", schema.Document{"price": 10, "customerGroupPrices": map[string]any{"WHS": 9}}, "", "10"},
		{"base without override map", schema.Document{"price": 10}, "", "10"},
		{"configured group", schema.Document{"price": 10, "customerGroupPrices": map[string]any{"ROT": 12.5, "WHS": 9}}, "WHS", "9"},
	}
	for _, tc := range cases {
		opts := fixedBuild()
		opts.PriceGroup = tc.group
		doc := Build("H1", tc.merged, opts)
		got, ok := schema.ToDecimal(doc["price"])
		if !ok || !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s: expected price %s, got %v", tc.name, tc.want, doc["price"])
		}
	}
}

func TestBuild_DerivedFields(t *testing.T) {
	merged := Merge(enrichedVariant("V1"), schema.Document{
		"variantId":           "V1",
		"customerGroupPrices": map[string]any{"ROT": 12.5},
		"subUnit":             map[string]any{"upc": "885", "weight": 5},
		"isFeatured":          true,
	})
	doc := Build("H1", merged, fixedBuild())

	if doc["_id"] != "abcdefghijklmnopqr" {
		t.Fatalf("expected minted id, got %v", doc["_id"])
	}
	if doc["variantHexCode"] != "V1_H1" || doc["hexCode"] != "H1" || doc["variantId"] != "V1" {
		t.Fatalf("unexpected identity fields %v", doc)
	}
	if doc["brandId"] != "B1" || doc["brandName"] != "Golden" || doc["productName"] != "Product V1" {
		t.Fatalf("expected product fields from productDetail, got %v", doc)
	}
	if doc["productCreatedAt"] != productCreated || doc["variantCreatedAt"] != variantCreated {
		t.Fatalf("unexpected timestamps %v %v", doc["productCreatedAt"], doc["variantCreatedAt"])
	}
	if doc["dateAdded"] != buildNow {
		t.Fatalf("expected dateAdded stamped with now, got %v", doc["dateAdded"])
	}
	subUnit := doc["subUnit"].(map[string]any)
	if len(subUnit) != 2 || subUnit["upc"] != "885" || subUnit["syncedAt"] != buildNow {
		t.Fatalf("expected subUnit with upc and syncedAt only, got %v", subUnit)
	}
	if doc["enabled"] != true || doc["isFeatured"] != true {
		t.Fatalf("unexpected flags enabled=%v featured=%v", doc["enabled"], doc["isFeatured"])
	}
	for _, dropped := range []string{"customerGroupPrices", "productDetail", "createdAt"} {
		if _, ok := doc[dropped]; ok {
			t.Fatalf("%s must not reach the destination document", dropped)
		}
	}
}

func TestBuild_Fallbacks(t *testing.T) {
	doc := Build("H1", schema.Document{"_id": "V7", "enabled": false}, fixedBuild())

	for _, key := range []string{"brandId", "brandName", "category", "categoryGroupId", "categoryId"} {
		if doc[key] != "" {
			t.Fatalf("expected %s to fall back to empty string, got %v", key, doc[key])
		}
	}
	if doc["variantId"] != "V7" || doc["variantHexCode"] != "V7_H1" {
		t.Fatalf("expected variantId from _id, got %v / %v", doc["variantId"], doc["variantHexCode"])
	}
	if doc["enabled"] != false {
		t.Fatalf("explicit enabled=false must pass through, got %v", doc["enabled"])
	}
	if doc["isFeatured"] != false {
		t.Fatalf("expected isFeatured default false, got %v", doc["isFeatured"])
	}
	if subUnit := doc["subUnit"].(map[string]any); subUnit["upc"] != "" {
		t.Fatalf("expected empty upc, got %v", subUnit["upc"])
	}
	if _, ok := doc["productCreatedAt"]; ok {
		t.Fatalf("absent product createdAt must stay absent")
	}
}

func TestBuild_PassesFlagsThroughForValidation(t *testing.T) {
	merged := enrichedVariant("V1")
	merged["enabled"] = "yes"
	merged["isFeatured"] = int64(1)

	doc := Build("H1", merged, fixedBuild())
	if doc["enabled"] != "yes" || doc["isFeatured"] != int64(1) {
		t.Fatalf("expected flags copied as found, got enabled=%v isFeatured=%v", doc["enabled"], doc["isFeatured"])
	}
	res := models.ValidateAreaBasketVariant(doc)
	if res.Valid {
		t.Fatalf("expected non-boolean flags to be rejected")
	}
	for _, name := range []string{"enabled", "isFeatured"} {
		found := false
		for _, e := range res.Errors {
			if e.Name == name && e.Type == schema.ErrExpectedType {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %s type error, got %v", name, res.Errors)
		}
	}
}

func TestBuild_NoKeyWithoutVariantId(t *testing.T) {
	doc := Build("H1", schema.Document{"name": "x"}, fixedBuild())
	if _, ok := doc["variantHexCode"]; ok {
		t.Fatalf("expected no variantHexCode without a variantId, got %v", doc["variantHexCode"])
	}
}

func TestBuild_MintsFreshIdEveryCall(t *testing.T) {
	merged := schema.Document{"variantId": "V1"}
	a := Build("H1", merged, BuildOptions{})
	b := Build("H1", merged, BuildOptions{})
	if a["_id"] == b["_id"] {
		t.Fatalf("expected distinct ids, got %v twice", a["_id"])
	}
	if a["variantHexCode"] != b["variantHexCode"] {
		t.Fatalf("key must not depend on the minted id")
	}
}

func TestMerge_SourceWins(t *testing.T) {
	enrichment := schema.Document{"_id": "V1", "price": 10, "name": "Rice"}
	source := schema.Document{"variantId": "V1", "price": 11}
	merged := Merge(enrichment, source)

	if merged["price"] != 11 || merged["name"] != "Rice" || merged["variantId"] != "V1" {
		t.Fatalf("unexpected merge %v", merged)
	}
	if enrichment["price"] != 10 {
		t.Fatalf("merge mutated the enrichment record")
	}
}

func TestVariantIds(t *testing.T) {
	docs := []schema.Document{{"variantId": "V2"}, {"variantId": "V1"}, {"variantId": "V2"}, {"name": "no id"}, {"variantId": 3}}
	got := variantIds(docs)
	if len(got) != 2 || got[0] != "V2" || got[1] != "V1" {
		t.Fatalf("expected [V2 V1], got %v", got)
	}
}

func TestSellable(t *testing.T) {
	cases := []struct {
		price any
		want  bool
	}{
		{12.5, true},
		{int64(1), true},
		{decimal.RequireFromString("0.01"), true},
		{0, false},
		{-3, false},
		{nil, false},
		{"12", false},
	}
	for _, tc := range cases {
		if got := sellable(schema.Document{"price": tc.price}); got != tc.want {
			t.Fatalf("price %v: expected %v, got %v", tc.price, tc.want, got)
		}
	}
}
