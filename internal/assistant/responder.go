package assistant

import (
	"fmt"
	"strings"
)

// Respond returns the deterministic reply used when remote generation is
// unavailable. The first knowledge entry with both a keyword match and a
// canned response wins; everything else gets the capabilities menu, which
// echoes the original message back for context. Always non-empty.
func Respond(message string) string {
	lower := strings.ToLower(message)

	for _, e := range Knowledge {
		if e.Response == "" {
			continue
		}
		for _, kw := range e.Keywords {
			if strings.Contains(lower, kw) {
				return e.Response
			}
		}
	}

	return fmt.Sprintf(`I understand you're asking about: "%s"

I'm here to help! Here are some things I can assist with:

🌾 Product Listings
💰 Payments & Pricing
🔗 Blockchain Verification
📦 Order Tracking
✓ KYC Verification
📞 Support & Contact

Could you please rephrase your question or choose one of the topics above?`, message)
}
