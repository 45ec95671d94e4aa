package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"phonereuse/entity"
	"phonereuse/lib/logger"
	"phonereuse/lib/phone"
)

const helpText = "/stats \\- registry statistics\n" +
	"/numbers \\[filter\\] \\- numbers available for reuse"

func formatStats(stats *entity.Statistics, window time.Duration) string {
	var b strings.Builder
	b.WriteString("*Phone number registry*\n")
	b.WriteString(fmt.Sprintf("Numbers: `%d` \\(active `%d`\\)\n", stats.TotalNumbers, stats.ActiveNumbers))
	b.WriteString(fmt.Sprintf("Uses: `%d`\n", stats.TotalUses))
	b.WriteString(fmt.Sprintf("Average uses: `%.2f`\n", stats.AverageUsesPerNumber))
	b.WriteString(fmt.Sprintf("Rentals saved: `%d`\n", stats.EstimatedSavings))
	b.WriteString(fmt.Sprintf("Reuse window: `%s`", window))
	if len(stats.ServicesUsed) > 0 {
		b.WriteString("\nServices: ")
		b.WriteString(logger.Sanitize(strings.Join(stats.ServicesUsed, ", ")))
	}

	if len(stats.Countries) > 0 {
		regions := make([]string, 0, len(stats.Countries))
		for region := range stats.Countries {
			regions = append(regions, region)
		}
		sort.Slice(regions, func(i, j int) bool {
			ci, cj := stats.Countries[regions[i]], stats.Countries[regions[j]]
			if ci != cj {
				return ci > cj
			}
			return regions[i] < regions[j]
		})
		b.WriteString("\n\n*Countries*")
		for _, region := range regions {
			b.WriteString(fmt.Sprintf("\n%s: `%d`", logger.Sanitize(phone.CountryName(region)), stats.Countries[region]))
		}
	}
	return b.String()
}

func formatNumbers(views []*entity.NumberView) string {
	if len(views) == 0 {
		return "No numbers available for reuse"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*Numbers: %d*", len(views)))
	for _, v := range views {
		b.WriteString(fmt.Sprintf("\n`%s` %s", v.PhoneNumber, logger.Sanitize(v.Region)))
		b.WriteString(logger.Sanitize(fmt.Sprintf(" | used %d | %s | expires %s",
			v.TimesUsed, strings.Join(v.Services, ","), v.ExpiresIn)))
	}
	return b.String()
}

// splitMessage cuts text into parts of at most maxLen bytes, preferring line breaks.
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			parts = append(parts, text)
			break
		}
		cutAt := maxLen
		nlIdx := strings.LastIndex(text[:maxLen], "\n")
		if nlIdx > 0 {
			cutAt = nlIdx + 1
		}
		parts = append(parts, text[:cutAt])
		text = text[cutAt:]
	}
	return parts
}
