package domain

// Plan describes a purchasable credit pack.
type Plan struct {
	ID         string // Plan identifier used in checkout metadata
	Name       string // Display name shown on the hosted checkout page
	PriceCents int64  // Price in the smallest currency unit
	Credits    int    // Credits granted on settlement
}

// Plans is the credit pack catalog. The free plan exists for display purposes
// and is not purchasable.
var Plans = map[string]Plan{
	"free":    {ID: "free", Name: "Free Package", PriceCents: 0, Credits: 20},
	"pro":     {ID: "pro", Name: "Pro Package", PriceCents: 4000, Credits: 120},
	"premium": {ID: "premium", Name: "Premium Package", PriceCents: 19900, Credits: 2000},
}

// PlanByID looks up a plan by its identifier.
func PlanByID(id string) (Plan, bool) {
	p, ok := Plans[id]
	return p, ok
}
