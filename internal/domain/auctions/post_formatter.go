package auctions

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatPost renders the social-media post for an auction from its extracted
// data and converted EUR price.
func FormatPost(d *ExtractedData, priceEUR string) string {
	if d == nil {
		d = &ExtractedData{}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "NEW! Arriving to the auction %s %s %s\n\n",
		orNA(d.Make), orNA(d.Model), orNA(string(d.Year)))

	price, err := strconv.ParseFloat(priceEUR, 64)
	if err != nil {
		price = 0
	}
	fmt.Fprintf(&b, "💶 Starting price: %s€\n\n", formatNumber(price))

	if d.AuctionDeadline != "" {
		fmt.Fprintf(&b, "🕒 Bidding deadline: %s by the end of the day at 21:00\n\n",
			subtractOneDay(d.AuctionDeadline))
	}

	b.WriteString("****\n\n")

	b.WriteString("Car details:\n\n")
	fmt.Fprintf(&b, "📌 Engine: %s\n\n", orNA(d.Engine))
	fmt.Fprintf(&b, "📌 Mileage: %s km\n\n", formatNumber(float64(d.Mileage)))

	if len(d.SellingPoints) > 0 {
		for _, point := range d.SellingPoints {
			fmt.Fprintf(&b, "📌 %s\n", point)
		}
		b.WriteString("\n")
	}

	if len(d.DamageNotes) > 0 {
		for _, note := range d.DamageNotes {
			fmt.Fprintf(&b, "📌 %s\n", note)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "✅ Exterior grade: %s\n", orNA(string(d.ExteriorGrade)))
	fmt.Fprintf(&b, "✅ Interior grade: %s\n\n", orNA(string(d.InteriorGrade)))

	b.WriteString("****\n\n")

	b.WriteString("Calculate the final price of the vehicle here 🏁\n\n")
	b.WriteString("www.jpcars.ee/calculator\n\n")

	b.WriteString("****\n\n")

	b.WriteString("Contact us:\n\n")
	b.WriteString("✉️ E-mail: orders@jpcars.ee\n\n")
	b.WriteString("📞 Phone: +37256992959 (WhatsApp)\n\n")
	b.WriteString("🇪🇪🇫🇮🇬🇧🇷🇺🇮🇹\n")

	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// formatNumber renders a whole number with spaces as thousands separators
// (European style): 7980000 -> "7 980 000".
func formatNumber(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}

	s := strconv.FormatInt(n, 10)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}

// subtractOneDay shifts a "dd.mm.yyyy" deadline back one day. The posted
// deadline must be a day earlier than the auction house cutoff so bids can be
// relayed in time. Unparseable input is returned unchanged.
func subtractOneDay(deadline string) string {
	t, err := time.Parse("02.01.2006", deadline)
	if err != nil {
		return deadline
	}
	return t.AddDate(0, 0, -1).Format("02.01.2006")
}
