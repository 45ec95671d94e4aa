// Package registry keeps rented phone numbers available for reuse across
// signups until their reuse window, anchored at first registration, runs out.
//
// Expiry is lazy: stale records are dropped whenever the registry is read
// (AcquireReusable, Stats, Records), never by a background timer.
// Every mutation is applied to a copy of the record set and becomes visible
// only after the store accepted the full set, so a failed write leaves the
// in-memory registry as it was before the call. Whether the store itself is
// left untouched depends on the store: the file and MySQL stores replace the
// set atomically, the Mongo store may keep a superset of both versions.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"phonereuse/entity"
	"phonereuse/lib/clock"
	"phonereuse/lib/sl"
	"phonereuse/lib/validate"

	"github.com/xeonx/timeago"
)

const DefaultReuseWindow = 30 * time.Minute

var (
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrInvalidService = errors.New("service code is empty")
	ErrPersist        = errors.New("persist registry")
)

// Store persists the whole record set at once.
type Store interface {
	Load(ctx context.Context) ([]entity.PhoneRecord, error)
	Save(ctx context.Context, records []entity.PhoneRecord) error
}

// Locker guards a store shared by several processes. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context) (func(), error)
}

type Options struct {
	ReuseWindow time.Duration
	// Locker is optional; when set, the store is re-read under the lock before every operation.
	Locker Locker
}

type Registry struct {
	mu      sync.Mutex
	store   Store
	clock   clock.Clock
	window  time.Duration
	locker  Locker
	records map[string]*entity.PhoneRecord
	log     *slog.Logger
}

// New loads the current record set from store. A store that cannot be read
// at startup yields an empty registry.
func New(ctx context.Context, store Store, clk clock.Clock, opts Options, log *slog.Logger) *Registry {
	if store == nil {
		panic("registry store is nil")
	}
	if clk == nil {
		clk = clock.System{}
	}
	window := opts.ReuseWindow
	if window <= 0 {
		window = DefaultReuseWindow
	}
	r := &Registry{
		store:  store,
		clock:  clk,
		window: window,
		locker: opts.Locker,
		log:    log.With(sl.Module("registry")),
	}
	records, err := r.load(ctx)
	if err != nil {
		r.log.Warn("phone numbers unreadable, starting empty", sl.Err(err))
		records = make(map[string]*entity.PhoneRecord)
	}
	r.records = records
	numbersGauge.Set(float64(len(r.records)))
	r.log.With(
		slog.Int("count", len(r.records)),
		slog.Duration("reuse_window", window),
	).Info("registry loaded")
	return r
}

func (r *Registry) Window() time.Duration {
	return r.window
}

// Register records a freshly rented number after a successful signup.
// Registering a known number refreshes last_used and adds the service,
// times_used is left alone.
func (r *Registry) Register(ctx context.Context, phoneNumber, countryCode, activationID, service string) error {
	phoneNumber = strings.TrimSpace(phoneNumber)
	log := r.log.With(sl.Phone(phoneNumber), sl.Service(service))

	if err := validate.PhoneNumber(phoneNumber); err != nil {
		log.Warn("register rejected", sl.Err(err))
		observe(opRegister, resultRejected)
		return fmt.Errorf("%w %q: %v", ErrInvalidPhone, phoneNumber, err)
	}
	if service == "" {
		log.Warn("register rejected: empty service")
		observe(opRegister, resultRejected)
		return ErrInvalidService
	}

	release, err := r.begin(ctx)
	if err != nil {
		log.Error("register", sl.Err(err))
		observe(opRegister, resultError)
		return err
	}
	defer release()

	now := r.clock.Now()
	work := r.snapshot()
	existing, found := work[phoneNumber]
	if found {
		existing.LastUsed = now
		existing.AddService(service)
	} else {
		work[phoneNumber] = &entity.PhoneRecord{
			PhoneNumber:  phoneNumber,
			CountryCode:  countryCode,
			ActivationID: activationID,
			FirstUsed:    now,
			LastUsed:     now,
			Services:     []string{service},
			TimesUsed:    1,
		}
	}

	if err = r.commit(ctx, work); err != nil {
		log.Error("register", sl.Err(err))
		observe(opRegister, resultError)
		return err
	}

	observe(opRegister, resultOk)
	if found {
		log.Debug("phone number refreshed")
	} else {
		log.With(slog.String("activation_id", activationID)).Info("phone number registered")
	}
	return nil
}

// AcquireReusable picks the least used number still inside the reuse window
// that has not served service yet, and books it for that service.
// It returns nil, nil when no number qualifies. The returned record is a copy.
func (r *Registry) AcquireReusable(ctx context.Context, service string) (*entity.PhoneRecord, error) {
	log := r.log.With(sl.Service(service))
	if service == "" {
		observe(opAcquire, resultRejected)
		return nil, ErrInvalidService
	}

	release, err := r.begin(ctx)
	if err != nil {
		log.Error("acquire", sl.Err(err))
		observe(opAcquire, resultError)
		return nil, err
	}
	defer release()

	now := r.clock.Now()
	work := r.snapshot()
	expired := r.expire(work, now)

	// expiry goes by first_used, recency by last_used
	var candidates []*entity.PhoneRecord
	for _, rec := range work {
		if now.Sub(rec.LastUsed) < r.window && !rec.HasService(service) {
			candidates = append(candidates, rec)
		}
	}

	if len(candidates) == 0 {
		if expired > 0 {
			if err = r.commit(ctx, work); err != nil {
				log.Error("acquire: saving expiry", sl.Err(err))
				observe(opAcquire, resultError)
				return nil, err
			}
			expiredCounter.Add(float64(expired))
		}
		observe(opAcquire, resultMiss)
		log.Debug("no reusable phone number")
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.TimesUsed != b.TimesUsed {
			return a.TimesUsed < b.TimesUsed
		}
		if !a.FirstUsed.Equal(b.FirstUsed) {
			return a.FirstUsed.Before(b.FirstUsed)
		}
		return a.PhoneNumber < b.PhoneNumber
	})

	selected := candidates[0]
	selected.LastUsed = now
	selected.TimesUsed++
	selected.AddService(service)

	if err = r.commit(ctx, work); err != nil {
		log.With(sl.Phone(selected.PhoneNumber)).Error("acquire", sl.Err(err))
		observe(opAcquire, resultError)
		return nil, err
	}
	expiredCounter.Add(float64(expired))
	observe(opAcquire, resultReused)

	expiresAt := selected.ExpiresAt(r.window)
	log.With(
		sl.Phone(selected.PhoneNumber),
		slog.Int("times_used", selected.TimesUsed),
		slog.String("expires", timeago.English.FormatReference(expiresAt, now)),
	).Info("reusing phone number")

	out := selected.Clone()
	return &out, nil
}

// MarkUsed books a number the caller used outside AcquireReusable.
// An unknown number is a miss: false, nil, nothing changes.
func (r *Registry) MarkUsed(ctx context.Context, phoneNumber, service string) (bool, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	log := r.log.With(sl.Phone(phoneNumber), sl.Service(service))
	if service == "" {
		observe(opMarkUsed, resultRejected)
		return false, ErrInvalidService
	}

	release, err := r.begin(ctx)
	if err != nil {
		log.Error("mark used", sl.Err(err))
		observe(opMarkUsed, resultError)
		return false, err
	}
	defer release()

	if _, ok := r.records[phoneNumber]; !ok {
		observe(opMarkUsed, resultMiss)
		log.Debug("mark used: unknown phone number")
		return false, nil
	}

	work := r.snapshot()
	rec := work[phoneNumber]
	rec.LastUsed = r.clock.Now()
	rec.TimesUsed++
	rec.AddService(service)

	if err = r.commit(ctx, work); err != nil {
		log.Error("mark used", sl.Err(err))
		observe(opMarkUsed, resultError)
		return false, err
	}
	observe(opMarkUsed, resultOk)
	log.With(slog.Int("times_used", rec.TimesUsed)).Info("phone number marked used")
	return true, nil
}

// Stats drops expired records, then summarizes the rest.
func (r *Registry) Stats(ctx context.Context) (entity.Statistics, error) {
	release, err := r.begin(ctx)
	if err != nil {
		r.log.Error("stats", sl.Err(err))
		return entity.Statistics{}, err
	}
	defer release()

	now := r.clock.Now()
	if err = r.purge(ctx, now); err != nil {
		r.log.Error("stats: saving expiry", sl.Err(err))
		return entity.Statistics{}, err
	}

	stats := entity.Statistics{
		TotalNumbers: len(r.records),
		ServicesUsed: []string{},
	}
	services := make(map[string]struct{})
	for _, rec := range r.records {
		stats.TotalUses += rec.TimesUsed
		if now.Sub(rec.LastUsed) < r.window {
			stats.ActiveNumbers++
		}
		for _, s := range rec.Services {
			services[s] = struct{}{}
		}
	}
	for s := range services {
		stats.ServicesUsed = append(stats.ServicesUsed, s)
	}
	sort.Strings(stats.ServicesUsed)

	if stats.TotalNumbers > 0 {
		stats.AverageUsesPerNumber = float64(stats.TotalUses) / float64(stats.TotalNumbers)
		stats.EstimatedSavings = stats.TotalUses - stats.TotalNumbers
	}
	return stats, nil
}

// Records drops expired records and returns copies of those whose number
// contains filter, oldest first. An empty filter matches everything.
func (r *Registry) Records(ctx context.Context, filter string) ([]entity.PhoneRecord, error) {
	release, err := r.begin(ctx)
	if err != nil {
		r.log.Error("records", sl.Err(err))
		return nil, err
	}
	defer release()

	if err = r.purge(ctx, r.clock.Now()); err != nil {
		r.log.Error("records: saving expiry", sl.Err(err))
		return nil, err
	}

	filter = strings.TrimSpace(filter)
	list := make([]entity.PhoneRecord, 0, len(r.records))
	for _, rec := range sorted(r.records) {
		if filter == "" || strings.Contains(rec.PhoneNumber, filter) {
			list = append(list, rec)
		}
	}
	return list, nil
}

// Remove deletes a number by hand. It reports false when the number is unknown.
func (r *Registry) Remove(ctx context.Context, phoneNumber string) (bool, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	log := r.log.With(sl.Phone(phoneNumber))

	release, err := r.begin(ctx)
	if err != nil {
		log.Error("remove", sl.Err(err))
		observe(opRemove, resultError)
		return false, err
	}
	defer release()

	if _, ok := r.records[phoneNumber]; !ok {
		observe(opRemove, resultMiss)
		return false, nil
	}
	work := r.snapshot()
	delete(work, phoneNumber)
	if err = r.commit(ctx, work); err != nil {
		log.Error("remove", sl.Err(err))
		observe(opRemove, resultError)
		return false, err
	}
	observe(opRemove, resultOk)
	log.Info("phone number removed")
	return true, nil
}

// begin enters the critical section. With a Locker the record set is
// re-read under the external lock, since another process may have written it.
// A failed re-read aborts the operation and leaves the store untouched.
func (r *Registry) begin(ctx context.Context) (func(), error) {
	r.mu.Lock()
	if r.locker == nil {
		return r.mu.Unlock, nil
	}
	unlock, err := r.locker.Lock(ctx)
	if err != nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("lock registry: %w", err)
	}
	records, err := r.load(ctx)
	if err != nil {
		unlock()
		r.mu.Unlock()
		return nil, fmt.Errorf("reload registry: %w", err)
	}
	r.records = records
	numbersGauge.Set(float64(len(records)))
	return func() {
		unlock()
		r.mu.Unlock()
	}, nil
}

func (r *Registry) load(ctx context.Context) (map[string]*entity.PhoneRecord, error) {
	list, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	records := make(map[string]*entity.PhoneRecord, len(list))
	for i := range list {
		rec := list[i].Clone()
		if rec.PhoneNumber == "" {
			r.log.Warn("skipping stored record without phone number")
			continue
		}
		if prev, ok := records[rec.PhoneNumber]; ok {
			r.log.With(sl.Phone(rec.PhoneNumber)).Warn("duplicate stored record, merging")
			rec = merge(*prev, rec)
		}
		records[rec.PhoneNumber] = &rec
	}
	return records, nil
}

// merge folds two stored copies of the same number into one, keeping the
// earliest first_used so the number does not outlive its rental.
func merge(a, b entity.PhoneRecord) entity.PhoneRecord {
	out := a.Clone()
	if b.FirstUsed.Before(out.FirstUsed) {
		out.FirstUsed = b.FirstUsed
	}
	if b.LastUsed.After(out.LastUsed) {
		out.LastUsed = b.LastUsed
	}
	if b.TimesUsed > out.TimesUsed {
		out.TimesUsed = b.TimesUsed
	}
	for _, s := range b.Services {
		out.AddService(s)
	}
	return out
}

func (r *Registry) snapshot() map[string]*entity.PhoneRecord {
	work := make(map[string]*entity.PhoneRecord, len(r.records))
	for k, rec := range r.records {
		c := rec.Clone()
		work[k] = &c
	}
	return work
}

// expire removes records whose window, counted from first_used, has elapsed.
func (r *Registry) expire(work map[string]*entity.PhoneRecord, now time.Time) int {
	n := 0
	for k, rec := range work {
		if now.Sub(rec.FirstUsed) >= r.window {
			delete(work, k)
			n++
		}
	}
	return n
}

// purge expires records and saves the result if anything was dropped.
func (r *Registry) purge(ctx context.Context, now time.Time) error {
	work := r.snapshot()
	n := r.expire(work, now)
	if n == 0 {
		return nil
	}
	if err := r.commit(ctx, work); err != nil {
		return err
	}
	expiredCounter.Add(float64(n))
	r.log.With(slog.Int("count", n)).Debug("expired phone numbers purged")
	return nil
}

// commit writes work to the store and adopts it only when the write succeeded.
func (r *Registry) commit(ctx context.Context, work map[string]*entity.PhoneRecord) error {
	if err := r.store.Save(ctx, sorted(work)); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	r.records = work
	numbersGauge.Set(float64(len(work)))
	return nil
}

func sorted(records map[string]*entity.PhoneRecord) []entity.PhoneRecord {
	list := make([]entity.PhoneRecord, 0, len(records))
	for _, rec := range records {
		list = append(list, rec.Clone())
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].FirstUsed.Equal(list[j].FirstUsed) {
			return list[i].FirstUsed.Before(list[j].FirstUsed)
		}
		return list[i].PhoneNumber < list[j].PhoneNumber
	})
	return list
}
