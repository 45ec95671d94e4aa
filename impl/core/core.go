package core

import (
	"context"
	"fmt"
	"log/slog"
	"phonereuse/entity"
	"phonereuse/lib/clock"
	"phonereuse/lib/phone"
	"phonereuse/lib/sl"
	"time"

	"github.com/xeonx/timeago"
)

type AuthService interface {
	ClientByToken(token string) (*entity.Client, error)
}

// Registry is the phone number registry the API and the bot work on.
type Registry interface {
	Register(ctx context.Context, phoneNumber, countryCode, activationID, service string) error
	AcquireReusable(ctx context.Context, service string) (*entity.PhoneRecord, error)
	MarkUsed(ctx context.Context, phoneNumber, service string) (bool, error)
	Stats(ctx context.Context) (entity.Statistics, error)
	Records(ctx context.Context, filter string) ([]entity.PhoneRecord, error)
	Remove(ctx context.Context, phoneNumber string) (bool, error)
	Window() time.Duration
}

type Core struct {
	reg            Registry
	clock          clock.Clock
	defaultService string
	auth           AuthService
	log            *slog.Logger
}

func New(reg Registry, clk clock.Clock, defaultService string, log *slog.Logger) *Core {
	if reg == nil {
		panic("registry is nil")
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Core{
		reg:            reg,
		clock:          clk,
		defaultService: defaultService,
		log:            log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) AuthenticateByToken(token string) (*entity.Client, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.ClientByToken(token)
}

func (c *Core) service(service string) string {
	if service == "" {
		return c.defaultService
	}
	return service
}

func (c *Core) RegisterNumber(ctx context.Context, req *entity.RegisterRequest) error {
	return c.reg.Register(ctx, req.PhoneNumber, req.CountryCode, req.ActivationID, c.service(req.Service))
}

// AcquireNumber returns nil when a new number has to be rented.
func (c *Core) AcquireNumber(ctx context.Context, service string) (*entity.NumberView, error) {
	rec, err := c.reg.AcquireReusable(ctx, c.service(service))
	if err != nil || rec == nil {
		return nil, err
	}
	return c.view(*rec), nil
}

func (c *Core) MarkNumberUsed(ctx context.Context, phoneNumber, service string) (bool, error) {
	return c.reg.MarkUsed(ctx, phoneNumber, c.service(service))
}

func (c *Core) RemoveNumber(ctx context.Context, phoneNumber string) (bool, error) {
	return c.reg.Remove(ctx, phoneNumber)
}

func (c *Core) ListNumbers(ctx context.Context, filter string) ([]*entity.NumberView, error) {
	records, err := c.reg.Records(ctx, filter)
	if err != nil {
		return nil, err
	}
	views := make([]*entity.NumberView, 0, len(records))
	for _, rec := range records {
		views = append(views, c.view(rec))
	}
	return views, nil
}

// NumberStats adds a per-country count to the registry statistics.
func (c *Core) NumberStats(ctx context.Context) (*entity.Statistics, error) {
	stats, err := c.reg.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalNumbers == 0 {
		return &stats, nil
	}
	records, err := c.reg.Records(ctx, "")
	if err != nil {
		return nil, err
	}
	stats.Countries = make(map[string]int)
	for _, rec := range records {
		stats.Countries[phone.Region(rec.PhoneNumber)]++
	}
	return &stats, nil
}

func (c *Core) ReuseWindow() time.Duration {
	return c.reg.Window()
}

func (c *Core) view(rec entity.PhoneRecord) *entity.NumberView {
	now := c.clock.Now()
	expiresAt := rec.ExpiresAt(c.reg.Window())
	return &entity.NumberView{
		PhoneRecord: rec,
		ExpiresAt:   expiresAt,
		ExpiresIn:   timeago.English.FormatReference(expiresAt, now),
		TTL:         int64(clock.Remaining(rec.FirstUsed, now, c.reg.Window()).Seconds()),
		Region:      phone.Region(rec.PhoneNumber),
	}
}
