package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/events"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
)

// In-memory repository fakes. They mirror the pgx-backed repositories,
// including pgx.ErrNoRows for missing rows.

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	seq     int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.byID[user.ID] = &clone
	m.byEmail[user.Email] = &clone
	return nil
}

func (m *memUserRepo) Update(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	clone := *user
	m.byID[user.ID] = &clone
	m.byEmail[user.Email] = &clone
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

type memRefreshRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
	seq    int
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: map[string]*domain.RefreshToken{}}
}

func (m *memRefreshRepo) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("rt-%d", m.seq)
	m.tokens[id] = &domain.RefreshToken{
		ID:        id,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return id, nil
}

func (m *memRefreshRepo) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.TokenHash == tokenHash {
			clone := *rt
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memRefreshRepo) Rotate(ctx context.Context, oldID, userID, newHash string, newExpiry time.Time) (string, error) {
	m.mu.Lock()
	old, ok := m.tokens[oldID]
	m.mu.Unlock()
	if !ok {
		return "", pgx.ErrNoRows
	}
	newID, err := m.Create(ctx, userID, newHash, newExpiry)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	old.Revoked = true
	old.ReplacedBy = &newID
	m.mu.Unlock()
	return newID, nil
}

func (m *memRefreshRepo) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.UserID == userID {
			rt.Revoked = true
		}
	}
	return nil
}

type memAttemptRepo struct {
	mu       sync.Mutex
	attempts []domain.LoginAttempt
}

func (m *memAttemptRepo) Record(_ context.Context, attempt *domain.LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt.CreatedAt = time.Now()
	m.attempts = append(m.attempts, *attempt)
	return nil
}

func (m *memAttemptRepo) CountRecentFailures(_ context.Context, email string, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, a := range m.attempts {
		if a.Email == email && !a.Success {
			count++
		}
	}
	return count, nil
}

type memProfessionalRepo struct {
	mu            sync.Mutex
	byID          map[string]*domain.Professional
	seq           int
	appointmentsN map[string]int64
}

func newMemProfessionalRepo() *memProfessionalRepo {
	return &memProfessionalRepo{byID: map[string]*domain.Professional{}, appointmentsN: map[string]int64{}}
}

func (m *memProfessionalRepo) Create(_ context.Context, prof *domain.Professional) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	prof.ID = fmt.Sprintf("prof-%d", m.seq)
	prof.CreatedAt = time.Now()
	prof.UpdatedAt = prof.CreatedAt
	clone := *prof
	m.byID[prof.ID] = &clone
	return nil
}

func (m *memProfessionalRepo) Update(_ context.Context, prof *domain.Professional) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[prof.ID]; !ok {
		return pgx.ErrNoRows
	}
	prof.UpdatedAt = time.Now()
	clone := *prof
	m.byID[prof.ID] = &clone
	return nil
}

func (m *memProfessionalRepo) GetByID(_ context.Context, id string) (*domain.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memProfessionalRepo) GetByEmail(_ context.Context, email string) (*domain.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memProfessionalRepo) List(_ context.Context, filter repository.ProfessionalFilter) ([]domain.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Professional, 0, len(m.byID))
	for _, p := range m.byID {
		if filter.Profession != nil && p.Profession != *filter.Profession {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memProfessionalRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func (m *memProfessionalRepo) CountAppointments(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appointmentsN[id], nil
}

type memAppointmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Appointment
	seq       int
	createErr error
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{byID: map[string]*domain.Appointment{}}
}

func (m *memAppointmentRepo) Create(_ context.Context, appt *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	appt.ID = fmt.Sprintf("appt-%d", m.seq)
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	clone := *appt
	m.byID[appt.ID] = &clone
	return nil
}

func (m *memAppointmentRepo) Update(_ context.Context, appt *domain.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[appt.ID]; !ok {
		return pgx.ErrNoRows
	}
	appt.UpdatedAt = time.Now()
	clone := *appt
	m.byID[appt.ID] = &clone
	return nil
}

func (m *memAppointmentRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memAppointmentRepo) List(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Appointment, 0, len(m.byID))
	for _, a := range m.byID {
		if filter.ProfessionalID != nil && a.ProfessionalID != *filter.ProfessionalID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, a.Status) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAppointmentRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

func containsStatus(statuses []domain.AppointmentStatus, status domain.AppointmentStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}
