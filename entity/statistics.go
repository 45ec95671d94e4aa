package entity

// Statistics summarizes the registry. EstimatedSavings counts signups that
// did not need a freshly paid rental.
type Statistics struct {
	TotalNumbers         int            `json:"total_numbers"`
	ActiveNumbers        int            `json:"active_numbers"`
	TotalUses            int            `json:"total_uses"`
	ServicesUsed         []string       `json:"services_used"`
	AverageUsesPerNumber float64        `json:"average_uses_per_number"`
	EstimatedSavings     int            `json:"estimated_savings"`
	Countries            map[string]int `json:"countries,omitempty"`
}
