package subscription

// Plan identifiers as stored in subscriptions.plan and sent as checkout metadata.
const (
	PlanFree      = "free"
	PlanPro       = "pro"
	PlanUnlimited = "unlimited"
)

// Unlimited is the quota of plans without a cap.
const Unlimited int64 = -1

var quotas = map[string]int64{
	PlanFree:      5,
	PlanPro:       100,
	PlanUnlimited: Unlimited,
}

// QuotaFor returns the maximum number of ideas an owner on plan may hold.
// Unknown and empty plan names get the free quota, never Unlimited.
func QuotaFor(plan string) int64 {
	if q, ok := quotas[plan]; ok {
		return q
	}
	return quotas[PlanFree]
}

// Allows reports whether an owner holding count ideas under quota may add one more.
func Allows(quota, count int64) bool {
	return quota == Unlimited || count < quota
}

// Money is an amount in the smallest currency unit.
type Money struct {
	Amount   int64
	Currency string
}

// Plan is a catalog entry shown on the pricing page.
type Plan struct {
	ID      string
	Name    string
	Price   Money // monthly
	Quota   int64
	PriceID string // gateway price identifier, empty for free
}

// Paid reports whether the plan goes through checkout.
func (p Plan) Paid() bool {
	return p.Price.Amount > 0
}

// PriceIDs maps paid plans to gateway price identifiers.
type PriceIDs struct {
	Pro       string `env:"BILLING_PRO_PRICE_ID"`
	Unlimited string `env:"BILLING_UNLIMITED_PRICE_ID"`
}

// Catalog is the ordered list of plans.
type Catalog []Plan

// NewCatalog builds the fixed plan list with the given price identifiers.
func NewCatalog(prices PriceIDs) Catalog {
	return Catalog{
		{ID: PlanFree, Name: "Free", Price: Money{0, "USD"}, Quota: QuotaFor(PlanFree)},
		{ID: PlanPro, Name: "Pro", Price: Money{900, "USD"}, Quota: QuotaFor(PlanPro), PriceID: prices.Pro},
		{ID: PlanUnlimited, Name: "Unlimited", Price: Money{2900, "USD"}, Quota: QuotaFor(PlanUnlimited), PriceID: prices.Unlimited},
	}
}

// Lookup finds a plan by ID.
func (c Catalog) Lookup(id string) (Plan, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
