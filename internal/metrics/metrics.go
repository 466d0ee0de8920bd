package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CouponsIssued counts issued coupons by policy variant.
	CouponsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupons_issued_total",
		Help: "Number of coupons issued, by policy variant.",
	}, []string{"variant"})

	// Redemptions counts redemption outcomes. result is "success",
	// a fixed rejection reason, or "error".
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Number of redemption attempts, by outcome.",
	}, []string{"result"})
)
