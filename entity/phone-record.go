package entity

import (
	"time"
)

// PhoneRecord is one rented phone number kept for reuse.
// FirstUsed is set once at registration and is the only field expiry looks at.
// Services behaves as a set: AddService never stores a code twice.
type PhoneRecord struct {
	PhoneNumber  string    `json:"phone_number" bson:"phone_number"`
	CountryCode  string    `json:"country_code" bson:"country_code"`
	ActivationID string    `json:"activation_id" bson:"activation_id"`
	FirstUsed    time.Time `json:"first_used" bson:"first_used"`
	LastUsed     time.Time `json:"last_used" bson:"last_used"`
	Services     []string  `json:"services" bson:"services"`
	TimesUsed    int       `json:"times_used" bson:"times_used"`
}

func (p *PhoneRecord) HasService(code string) bool {
	for _, s := range p.Services {
		if s == code {
			return true
		}
	}
	return false
}

// AddService reports whether code was added.
func (p *PhoneRecord) AddService(code string) bool {
	if p.HasService(code) {
		return false
	}
	p.Services = append(p.Services, code)
	return true
}

// Clone returns a copy that shares no memory with p.
func (p *PhoneRecord) Clone() PhoneRecord {
	c := *p
	c.Services = append([]string(nil), p.Services...)
	return c
}

func (p *PhoneRecord) ExpiresAt(window time.Duration) time.Time {
	return p.FirstUsed.Add(window)
}

// NumberView is a PhoneRecord as shown to operators, with its remaining reuse window.
type NumberView struct {
	PhoneRecord
	ExpiresAt time.Time `json:"expires_at"`
	ExpiresIn string    `json:"expires_in"`
	TTL       int64     `json:"ttl_seconds"`
	Region    string    `json:"region,omitempty"`
}
