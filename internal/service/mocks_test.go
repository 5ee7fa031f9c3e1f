package service_test

import (
	"context"
	"fmt"
	"time"

	"github.com/gatehouse/visitgate/internal/domain"
)

// ---------- Mocks ----------

var mockBaseTime = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

type mockUserRepo struct {
	nextID int64
	users  map[int64]*domain.User
	byName map[string]int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:  make(map[int64]*domain.User),
		byName: make(map[string]int64),
	}
}

func (m *mockUserRepo) Create(_ context.Context, username, passwordHash string, role domain.Role) (*domain.User, error) {
	if _, exists := m.byName[username]; exists {
		return nil, fmt.Errorf("%w: username already exists", domain.ErrConflict)
	}

	m.nextID++
	now := mockBaseTime.Add(time.Duration(m.nextID) * time.Minute)
	u := &domain.User{
		ID:           m.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	m.byName[username] = u.ID
	return u, nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	id, exists := m.byName[username]
	if !exists {
		return nil, nil
	}
	return m.users[id], nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, exists := m.users[id]
	if !exists {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	for id := m.nextID; id >= 1; id-- {
		if u, exists := m.users[id]; exists {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (m *mockUserRepo) ExistsByRole(_ context.Context, role domain.Role) (bool, error) {
	for _, u := range m.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

type mockVisitorRepo struct {
	nextID   int64
	visitors map[int64]*domain.Visitor
	byNumber map[string]int64
	users    *mockUserRepo
}

func newMockVisitorRepo(users *mockUserRepo) *mockVisitorRepo {
	return &mockVisitorRepo{
		visitors: make(map[int64]*domain.Visitor),
		byNumber: make(map[string]int64),
		users:    users,
	}
}

func (m *mockVisitorRepo) Create(_ context.Context, req *domain.CreateVisitorRequest, createdBy int64, totalTimeSpent *int) (*domain.Visitor, error) {
	if _, exists := m.byNumber[req.VisitorNumber]; exists {
		return nil, fmt.Errorf("%w: visitorNumber already exists", domain.ErrConflict)
	}

	m.nextID++
	now := mockBaseTime.Add(time.Duration(m.nextID) * time.Minute)
	v := &domain.Visitor{
		ID:              m.nextID,
		VisitorNumber:   req.VisitorNumber,
		Name:            req.Name,
		Mobile:          req.Mobile,
		ContactPersonID: req.ContactPersonID,
		Purpose:         req.Purpose,
		NumberOfPersons: req.NumberOfPersons,
		VehicleNumber:   req.VehicleNumber,
		InTime:          req.InTime,
		OutTime:         req.OutTime,
		TotalTimeSpent:  totalTimeSpent,
		PhotoURL:        req.PhotoURL,
		MeetingStatus:   req.MeetingStatus,
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.visitors[v.ID] = v
	m.byNumber[v.VisitorNumber] = v.ID
	return v, nil
}

func (m *mockVisitorRepo) GetByID(_ context.Context, id int64) (*domain.Visitor, error) {
	v, exists := m.visitors[id]
	if !exists {
		return nil, nil
	}
	return v, nil
}

func (m *mockVisitorRepo) GetByIDForContact(_ context.Context, id, contactPersonID int64) (*domain.Visitor, error) {
	v, exists := m.visitors[id]
	if !exists || v.ContactPersonID != contactPersonID {
		return nil, nil
	}
	return v, nil
}

func (m *mockVisitorRepo) recompute(v *domain.Visitor) {
	if v.InTime != nil && v.OutTime != nil {
		t := domain.TotalMinutes(*v.InTime, *v.OutTime)
		v.TotalTimeSpent = &t
	}
}

func (m *mockVisitorRepo) Update(_ context.Context, id int64, patch domain.VisitorPatch) (*domain.Visitor, error) {
	v, exists := m.visitors[id]
	if !exists {
		return nil, nil
	}

	if patch.Name != nil {
		v.Name = *patch.Name
	}
	if patch.Mobile != nil {
		v.Mobile = *patch.Mobile
	}
	if patch.Purpose != nil {
		v.Purpose = *patch.Purpose
	}
	if patch.NumberOfPersons != nil {
		v.NumberOfPersons = *patch.NumberOfPersons
	}
	if patch.VehicleNumber != nil {
		v.VehicleNumber = patch.VehicleNumber
	}
	if patch.InTime != nil {
		v.InTime = patch.InTime
	}
	if patch.OutTime != nil {
		v.OutTime = patch.OutTime
	}
	if patch.PhotoURL != nil {
		v.PhotoURL = patch.PhotoURL
	}
	m.recompute(v)
	v.UpdatedAt = time.Now()
	return v, nil
}

func (m *mockVisitorRepo) CheckOut(_ context.Context, id int64, outTime time.Time) (*domain.Visitor, error) {
	v, exists := m.visitors[id]
	if !exists {
		return nil, nil
	}

	v.OutTime = &outTime
	m.recompute(v)
	v.UpdatedAt = time.Now()
	return v, nil
}

func (m *mockVisitorRepo) UpdateMeeting(_ context.Context, id, contactPersonID int64, status domain.MeetingStatus, outTime time.Time) (*domain.Visitor, error) {
	v, exists := m.visitors[id]
	if !exists || v.ContactPersonID != contactPersonID {
		return nil, nil
	}

	v.MeetingStatus = status
	v.OutTime = &outTime
	m.recompute(v)
	v.UpdatedAt = time.Now()
	return v, nil
}

func (m *mockVisitorRepo) ListAll(_ context.Context) ([]domain.VisitorWithContact, error) {
	visitors := make([]domain.VisitorWithContact, 0)
	for id := m.nextID; id >= 1; id-- {
		v, exists := m.visitors[id]
		if !exists {
			continue
		}
		wc := domain.VisitorWithContact{Visitor: *v}
		if m.users != nil {
			if u, exists := m.users.users[v.ContactPersonID]; exists {
				wc.ContactPerson = &domain.ContactPersonInfo{
					ID:       u.ID,
					Username: u.Username,
					Role:     u.Role,
				}
			}
		}
		visitors = append(visitors, wc)
	}
	return visitors, nil
}

func (m *mockVisitorRepo) ListByContact(_ context.Context, contactPersonID int64) ([]domain.Visitor, error) {
	visitors := make([]domain.Visitor, 0)
	for id := m.nextID; id >= 1; id-- {
		if v, exists := m.visitors[id]; exists && v.ContactPersonID == contactPersonID {
			visitors = append(visitors, *v)
		}
	}
	return visitors, nil
}

type mockIdempotencyRepo struct {
	keys map[string]int64
}

func newMockIdempotencyRepo() *mockIdempotencyRepo {
	return &mockIdempotencyRepo{keys: make(map[string]int64)}
}

func (m *mockIdempotencyRepo) CheckOrCreate(_ context.Context, key string, visitorID int64) (int64, error) {
	if existing, exists := m.keys[key]; exists {
		return existing, nil
	}
	if visitorID > 0 {
		m.keys[key] = visitorID
	}
	return 0, nil
}

func (m *mockIdempotencyRepo) CleanupExpired(context.Context) (int64, error) { return 0, nil }

type publishedEvent struct {
	subject string
	data    interface{}
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.events = append(m.events, publishedEvent{subject: subject, data: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }
