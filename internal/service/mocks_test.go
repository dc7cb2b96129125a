package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"medintake/internal/ai"
	"medintake/internal/crypto"
	"medintake/internal/model"
	"medintake/internal/repository"
)

func testCipher() *crypto.Cipher {
	return crypto.NewCipher("service-test-key")
}

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx, m)
}

// MockPatientRepository is a mock implementation of PatientRepository.
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) FindByID(ctx context.Context, id uint) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) FindByUserID(ctx context.Context, userID uint) (*model.Patient, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

func (m *MockPatientRepository) ListAll(ctx context.Context) ([]model.Patient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Patient), args.Error(1)
}

// MockVisitRepository is a mock implementation of VisitRepository.
type MockVisitRepository struct {
	mock.Mock
}

func (m *MockVisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *MockVisitRepository) Update(ctx context.Context, visit *model.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *MockVisitRepository) FindByID(ctx context.Context, id uint) (*model.Visit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visit), args.Error(1)
}

func (m *MockVisitRepository) FindByPatientID(ctx context.Context, patientID uint, limit int) ([]model.Visit, error) {
	args := m.Called(ctx, patientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Visit), args.Error(1)
}

func (m *MockVisitRepository) FindRecent(ctx context.Context, limit int) ([]model.Visit, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Visit), args.Error(1)
}

func (m *MockVisitRepository) LastVisit(ctx context.Context, patientID uint) (*model.Visit, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visit), args.Error(1)
}

// memVisitRepo is a stateful in-memory visit repository for pipeline tests
// that assert on persisted rows across multiple calls.
type memVisitRepo struct {
	mu     sync.Mutex
	nextID uint
	visits map[uint]model.Visit
}

func newMemVisitRepo() *memVisitRepo {
	return &memVisitRepo{nextID: 1, visits: make(map[uint]model.Visit)}
}

func (r *memVisitRepo) Create(_ context.Context, visit *model.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	visit.ID = r.nextID
	r.nextID++
	r.visits[visit.ID] = *visit
	return nil
}

func (r *memVisitRepo) Update(_ context.Context, visit *model.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits[visit.ID] = *visit
	return nil
}

func (r *memVisitRepo) FindByID(_ context.Context, id uint) (*model.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	visit, ok := r.visits[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := visit
	return &copied, nil
}

func (r *memVisitRepo) FindByPatientID(_ context.Context, patientID uint, _ int) ([]model.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Visit
	for _, visit := range r.visits {
		if visit.PatientID == patientID {
			out = append(out, visit)
		}
	}
	return out, nil
}

func (r *memVisitRepo) FindRecent(_ context.Context, _ int) ([]model.Visit, error) {
	return nil, nil
}

func (r *memVisitRepo) LastVisit(_ context.Context, _ uint) (*model.Visit, error) {
	return nil, nil
}

// memInsuranceRepo is a stateful in-memory insurance repository.
type memInsuranceRepo struct {
	nextID uint
	rows   map[uint]model.Insurance
}

func newMemInsuranceRepo() *memInsuranceRepo {
	return &memInsuranceRepo{nextID: 1, rows: make(map[uint]model.Insurance)}
}

func (r *memInsuranceRepo) Save(_ context.Context, insurance *model.Insurance) error {
	if insurance.ID == 0 {
		insurance.ID = r.nextID
		r.nextID++
	}
	r.rows[insurance.PatientID] = *insurance
	return nil
}

func (r *memInsuranceRepo) FindByPatientID(_ context.Context, patientID uint) (*model.Insurance, error) {
	row, ok := r.rows[patientID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := row
	return &copied, nil
}

// MockInsuranceRepository is a mock implementation of InsuranceRepository.
type MockInsuranceRepository struct {
	mock.Mock
}

func (m *MockInsuranceRepository) Save(ctx context.Context, insurance *model.Insurance) error {
	args := m.Called(ctx, insurance)
	return args.Error(0)
}

func (m *MockInsuranceRepository) FindByPatientID(ctx context.Context, patientID uint) (*model.Insurance, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Insurance), args.Error(1)
}

// memSessionRepo backs a real TokenService in tests without redis or a
// database.
type memSessionRepo struct {
	nextID   uint
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{nextID: 1, sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, session *model.Session) error {
	session.ID = r.nextID
	r.nextID++
	r.sessions[session.TokenHash] = session
	return nil
}

func (r *memSessionRepo) FindActiveByTokenHash(_ context.Context, tokenHash string, now time.Time) (*model.Session, error) {
	session, ok := r.sessions[tokenHash]
	if !ok || session.IsRevoked || session.ExpiresAt.Before(now) {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (r *memSessionRepo) RevokeByTokenHash(_ context.Context, tokenHash string) (bool, error) {
	session, ok := r.sessions[tokenHash]
	if !ok {
		return false, nil
	}
	session.IsRevoked = true
	return true, nil
}

// capturingRecorder collects audit entries so tests can assert that each
// sensitive action records exactly one.
type capturingRecorder struct {
	entries []capturedAudit
	err     error
}

type capturedAudit struct {
	action       string
	resourceType string
	resourceID   *uint
	details      map[string]interface{}
}

func (c *capturingRecorder) Record(_ context.Context, action, resourceType string, resourceID *uint, details map[string]interface{}) error {
	if c.err != nil {
		return c.err
	}
	c.entries = append(c.entries, capturedAudit{
		action:       action,
		resourceType: resourceType,
		resourceID:   resourceID,
		details:      details,
	})
	return nil
}

// fakeTranscriber, fakeExtractor and fakeArchiver stand in for the external
// providers in pipeline tests.
type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeExtractor struct {
	analysis *ai.Analysis
	err      error
}

func (f *fakeExtractor) Extract(_ context.Context, _ string) (*ai.Analysis, error) {
	return f.analysis, f.err
}

type fakeArchiver struct {
	filename string
	err      error
	calls    int
}

func (f *fakeArchiver) Archive(_, _, _ string, _ *ai.Analysis) (string, error) {
	f.calls++
	return f.filename, f.err
}
