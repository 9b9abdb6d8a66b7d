// Package assistant implements the deterministic parts of the conversation
// pipeline: message classification, canned fallback responses, quick-reply
// suggestions and the sentiment heuristic.
package assistant

import (
	"github.com/farmchain/assistant-platform/internal/model"
)

// Entry binds a category to its keyword list, canned fallback response and
// quick-reply suggestions. A single ordered table backs the classifier, the
// responder and the quick-reply lookup so the keyword sets cannot drift
// apart. Order matters: the first matching entry wins.
type Entry struct {
	Category     model.Category
	Keywords     []string
	Response     string
	QuickReplies []string
}

// Knowledge is the ordered category table. Entries without a Response (or
// without QuickReplies) fall through to the general defaults.
var Knowledge = []Entry{
	{
		Category: model.CategoryListing,
		Keywords: []string{"list", "product", "sell", "register", "upload", "add product"},
		Response: `To list your products on FarmChain:

1. Navigate to 'Register Product' page
2. Fill in product details:
   • Name and description
   • Category and quantity
   • Price and quality grade
3. Upload product images
4. Add certifications (optional)
5. Submit for blockchain registration

Your product will be verified and listed within 24 hours! 🌾

Need help with a specific step?`,
		QuickReplies: []string{
			"How do I list a product?",
			"What documents do I need?",
			"How long does verification take?",
		},
	},
	{
		Category: model.CategoryPayment,
		Keywords: []string{"payment", "pay", "crypto", "wallet", "money", "matic", "transaction"},
		Response: `FarmChain Payment System:

💰 Accepted Currency: MATIC (Polygon Network)
🔒 Security: Smart contract escrow
⚡ Speed: Instant transactions
💸 Fees: Minimal gas costs

How it works:
1. Buyer pays → Funds held in escrow
2. Seller ships → Updates status
3. Buyer confirms → Funds released automatically

Your payments are secure and transparent! Need help setting up your wallet?`,
		QuickReplies: []string{
			"How do I receive payments?",
			"What is MATIC?",
			"Are payments secure?",
		},
	},
	{
		Category: model.CategoryBlockchain,
		Keywords: []string{"blockchain", "verify", "trace", "track", "transparent", "smart contract"},
		Response: `Blockchain Verification Benefits:

✅ Product Authenticity: Every product has a unique blockchain ID
✅ Supply Chain Transparency: Track from farm to table
✅ Immutable Records: Cannot be altered or faked
✅ Farmer Verification: All farmers are KYC verified

Each transaction is recorded on Polygon blockchain, ensuring complete transparency and trust!

Want to verify a specific product?`,
		QuickReplies: []string{
			"What is blockchain verification?",
			"How does traceability work?",
			"Why use blockchain?",
		},
	},
	{
		Category: model.CategoryOrder,
		Keywords: []string{"order", "delivery", "shipping", "status", "purchase"},
		Response: `Order Tracking:

📦 Track your order:
1. Go to 'My Orders' page
2. Click on your order ID
3. View real-time status updates
4. See blockchain-verified milestones

Order statuses:
• Pending → Confirmed → Shipped → Delivered

You'll receive notifications at each step! Need help with a specific order?`,
		QuickReplies: []string{
			"How do I track my order?",
			"What are delivery times?",
			"Can I cancel an order?",
		},
	},
	{
		Category: model.CategoryKYC,
		Keywords: []string{"kyc", "verification", "verify", "account", "documents", "identity"},
		Response: `KYC Verification Process:

📋 Required Documents:
• Identity proof (Aadhar/PAN)
• Address proof
• Business registration (for farmers)

⏱️ Timeline: 24-48 hours
✓ Benefits: Verified badge, priority support, better visibility

Steps:
1. Upload documents
2. Fill business details
3. Wait for admin approval
4. Get verified!

Need help uploading documents?`,
		QuickReplies: []string{
			"What is KYC verification?",
			"What documents are needed?",
			"How long does it take?",
		},
	},
	{
		Category: model.CategoryPricing,
		Keywords: []string{"price", "fee", "cost", "plan", "subscription", "how much"},
		Response: `FarmChain Pricing Plans:

🆓 Basic (Free):
• List up to 10 products
• 2% transaction fee
• Basic support

💼 Professional (₹999/month):
• Unlimited listings
• 1.5% transaction fee
• Priority support
• Featured listings

🏢 Enterprise (Custom):
• Everything in Professional
• 1% transaction fee
• Dedicated account manager
• API access

No hidden charges! Which plan interests you?`,
	},
	{
		Category: model.CategorySupport,
		Keywords: []string{"help", "support", "contact", "issue", "problem", "question"},
		Response: `FarmChain Support:

📧 Email: support@farmchain.com
📞 Phone: +91 1234 567 890
💬 Live Chat: Right here!
📚 Help Center: /help
⏰ Hours: 24/7 support

Common issues:
• Account problems
• Payment issues
• Technical difficulties
• Product listing help

What specific issue can I help you with?`,
	},
	{
		Category: model.CategoryQuality,
		Keywords: []string{"quality", "fresh", "organic", "certification", "standard"},
	},
	{
		Category: model.CategoryTracking,
		Keywords: []string{"track", "trace", "location", "where", "supply chain"},
	},
}

// GeneralQuickReplies is the default suggestion list, used for any category
// without its own entry.
var GeneralQuickReplies = []string{
	"How does FarmChain work?",
	"What are the benefits?",
	"How do I get started?",
}

// QuickReplies returns the suggestion list for a category, defaulting to
// the general list for unlisted categories.
func QuickReplies(category model.Category) []string {
	for _, e := range Knowledge {
		if e.Category == category && len(e.QuickReplies) > 0 {
			return e.QuickReplies
		}
	}
	return GeneralQuickReplies
}
