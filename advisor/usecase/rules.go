package usecase

import (
	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
)

// DefaultIndexRules returns the index expectations for the storefront
// collections. Each rule names the fields an index must cover in order;
// recommended indexes ascend on every field. The table is data so new
// expectations are added here, not in analyzer code.
func DefaultIndexRules() map[string][]entity.IndexRule {
	return map[string][]entity.IndexRule{
		"products": {
			{
				Fields:   []string{"status", "visibility"},
				Reason:   "Storefront listings filter on status and visibility for every page load",
				Priority: entity.PriorityHigh,
			},
			{
				Fields:   []string{"slug"},
				Reason:   "Product detail pages resolve products by slug",
				Priority: entity.PriorityHigh,
			},
			{
				Fields:   []string{"category", "price"},
				Reason:   "Category pages sort filtered products by price",
				Priority: entity.PriorityMedium,
			},
			{
				Fields:   []string{"created_at"},
				Reason:   "The new arrivals feed sorts by creation time",
				Priority: entity.PriorityLow,
			},
		},
		"orders": {
			{
				Fields:   []string{"user_id", "created_at"},
				Reason:   "Account order history filters by user and sorts by recency",
				Priority: entity.PriorityHigh,
			},
			{
				Fields:   []string{"status"},
				Reason:   "Fulfilment dashboards filter orders by status",
				Priority: entity.PriorityMedium,
			},
			{
				Fields:   []string{"payment_intent_id"},
				Reason:   "Payment webhooks look up orders by payment intent",
				Priority: entity.PriorityMedium,
			},
		},
		"reviews": {
			{
				Fields:   []string{"product_id", "created_at"},
				Reason:   "Product pages load the most recent reviews per product",
				Priority: entity.PriorityHigh,
			},
			{
				Fields:   []string{"product_id", "rating"},
				Reason:   "Rating summaries aggregate per product and rating",
				Priority: entity.PriorityMedium,
			},
			{
				Fields:   []string{"user_id"},
				Reason:   "Profile pages list the reviews a user has written",
				Priority: entity.PriorityLow,
			},
		},
		"users": {
			{
				Fields:   []string{"email"},
				Reason:   "Login and registration look up users by email",
				Priority: entity.PriorityHigh,
			},
			{
				Fields:   []string{"created_at"},
				Reason:   "Admin dashboards sort users by signup date",
				Priority: entity.PriorityLow,
			},
		},
		"categories": {
			{
				Fields:   []string{"slug"},
				Reason:   "Category routing resolves categories by slug",
				Priority: entity.PriorityHigh,
			},
			{
				Fields:   []string{"parent_id", "position"},
				Reason:   "Navigation builds child category lists ordered by position",
				Priority: entity.PriorityMedium,
			},
		},
	}
}
