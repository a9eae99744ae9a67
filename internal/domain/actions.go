package domain

// Named UI actions the core may ask a scan surface to locate and trigger. The
// surface owns the mapping from these names to concrete page affordances.
const (
	ActionAddToCart       = "add_to_cart"
	ActionOpenCart        = "open_cart"
	ActionOpenCheckout    = "open_checkout"
	ActionConfirmPurchase = "confirm_purchase"
	ActionRefreshResults  = "refresh_results"
)
