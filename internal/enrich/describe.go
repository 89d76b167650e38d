package enrich

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/community-cli/internal/model"
)

// amenity maps a community-feature keyword to its description phrase and
// feature tag. Order is the order phrases appear in generated copy.
type amenity struct {
	keywords []string
	phrase   string
	tag      string
}

var amenities = []amenity{
	{keywords: []string{"golf"}, phrase: "championship golf courses", tag: "Golf course"},
	{keywords: []string{"pool"}, phrase: "resort-style pools", tag: "Community pools"},
	{keywords: []string{"tennis"}, phrase: "tennis courts", tag: "Tennis courts"},
	{keywords: []string{"pickle"}, phrase: "pickleball courts", tag: "Pickleball courts"},
	{keywords: []string{"fitness", "gym"}, phrase: "state-of-the-art fitness center", tag: "Fitness center"},
	{keywords: []string{"clubhouse"}, phrase: "elegant clubhouse"},
	{keywords: []string{"spa"}, phrase: "spa facilities"},
	{keywords: []string{"dog park"}, phrase: "dog park"},
	{keywords: []string{"lake"}, phrase: "scenic lake"},
	{keywords: []string{"hiking", "trails"}, phrase: "walking and hiking trails"},
}

const (
	seniorPhrase    = "a 55+ active adult community"
	seniorFeature   = "55+ community"
	maxAmenities    = 5
	maxFeatures     = 5
	luxuryFeature   = "Luxury homes"
	entryFeature    = "Entry-level pricing"
	residentialType = "a residential community"
)

var printer = message.NewPrinter(language.English)

func matched(features string) []amenity {
	lower := strings.ToLower(features)
	var out []amenity
	for _, a := range amenities {
		for _, kw := range a.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

// AmenityPhrases returns up to five description phrases, the 55+ phrase
// first for senior communities.
func AmenityPhrases(sub *model.Subdivision) []string {
	var out []string
	if sub.SeniorCommunity {
		out = append(out, seniorPhrase)
	}
	for _, a := range matched(sub.CommunityFeatures) {
		out = append(out, a.phrase)
	}
	if len(out) > maxAmenities {
		out = out[:maxAmenities]
	}
	return out
}

// FormatPrice renders a price as "$1.25M" or "$650k".
func FormatPrice(price float64) string {
	if price >= 1_000_000 {
		return fmt.Sprintf("$%.2fM", price/1_000_000)
	}
	return fmt.Sprintf("$%.0fk", price/1_000)
}

// PropertyTypePhrase names the dominant property mix.
func PropertyTypePhrase(pt model.PropertyTypes) string {
	total := float64(pt.Total())
	switch {
	case total == 0:
		return residentialType
	case float64(pt.Residential)/total > 0.8:
		return residentialType
	case float64(pt.Lease)/total > 0.6:
		return "a rental community"
	case float64(pt.MultiFamily)/total > 0.5:
		return "a multi-family community"
	}
	return "a mixed-use community"
}

func listings(n int) string {
	if n == 1 {
		return "1 active listing"
	}
	return fmt.Sprintf("%d active listings", n)
}

// Describe generates the templated description for a subdivision.
func Describe(sub *model.Subdivision) string {
	if sub.IsNonHOA() {
		return fmt.Sprintf("%s encompasses the diverse properties in %s, %s, that are not part of a homeowners association. "+
			"With %s averaging %s, this area offers flexibility and independence for homeowners seeking properties without HOA restrictions or fees. "+
			"These homes provide a range of architectural styles and lot sizes, perfect for those who value autonomy in their property decisions and outdoor living spaces.",
			sub.Name, sub.City, sub.Region, listings(sub.ListingCount), FormatPrice(sub.AvgPrice))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s is %s in %s, %s, offering residents an exceptional living experience in one of Southern California's most desirable locations.",
		sub.Name, PropertyTypePhrase(sub.PropertyTypes), sub.City, sub.Region)

	if phrases := AmenityPhrases(sub); len(phrases) > 0 {
		fmt.Fprintf(&b, " This exclusive community features %s, providing residents with an exceptional lifestyle.", strings.Join(phrases, ", "))
	}

	fmt.Fprintf(&b, " With %s averaging %s, this community provides a perfect blend of comfort, convenience, and quality lifestyle.",
		listings(sub.ListingCount), FormatPrice(sub.AvgPrice))

	if sub.HOA != nil && sub.HOA.AvgMonthlyFee > 0 {
		kind := "an HOA"
		if sub.HOA.Dual {
			kind = "dual HOA associations"
		}
		b.WriteString(printer.Sprintf(" The community has %s with average monthly fees of approximately $%d, covering maintenance and amenities.",
			kind, int64(math.Round(sub.HOA.AvgMonthlyFee))))
	}
	return b.String()
}

// Features derives up to five feature tags.
func Features(sub *model.Subdivision, luxury, entry float64) []string {
	var out []string
	if sub.SeniorCommunity {
		out = append(out, seniorFeature)
	}
	for _, a := range matched(sub.CommunityFeatures) {
		if a.tag != "" {
			out = append(out, a.tag)
		}
	}
	if sub.HOA != nil && sub.HOA.AvgMonthlyFee > 0 {
		out = append(out, printer.Sprintf("HOA: $%d/mo", int64(math.Round(sub.HOA.AvgMonthlyFee))))
	}
	switch {
	case luxury > 0 && sub.AvgPrice > luxury:
		out = append(out, luxuryFeature)
	case entry > 0 && sub.AvgPrice > 0 && sub.AvgPrice < entry:
		out = append(out, entryFeature)
	}
	if sub.Region != "" && sub.Region != model.UnclassifiedRegion {
		out = append(out, sub.Region+" living")
	}
	if len(out) > maxFeatures {
		out = out[:maxFeatures]
	}
	return out
}

// Keywords derives the default search keywords.
func Keywords(sub *model.Subdivision) []string {
	out := []string{
		sub.Name + " homes for sale",
		"Living in " + sub.Name + " " + sub.City,
		sub.Name + " real estate",
		sub.City + " neighborhoods",
	}
	if sub.Region != "" && sub.Region != model.UnclassifiedRegion {
		out = append(out, sub.Region+" communities")
	}
	return out
}
