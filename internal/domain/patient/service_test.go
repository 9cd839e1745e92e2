package patient

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type mockRepo struct {
	patients  map[string]*Patient
	kin       map[string]*NextOfKin
	guardians map[string]*Guardian
	histories map[string]*MedicalHistory
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients:  make(map[string]*Patient),
		kin:       make(map[string]*NextOfKin),
		guardians: make(map[string]*Guardian),
		histories: make(map[string]*MedicalHistory),
	}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	m.patients[p.RegNo] = p
	return nil
}

func (m *mockRepo) CreateKin(_ context.Context, k *NextOfKin) error {
	m.kin[k.RegNo] = k
	return nil
}

func (m *mockRepo) CreateGuardian(_ context.Context, g *Guardian) error {
	m.guardians[g.RegNo] = g
	return nil
}

func (m *mockRepo) CreateHistory(_ context.Context, h *MedicalHistory) error {
	m.histories[h.RegNo] = h
	return nil
}

func (m *mockRepo) GetByRegNo(_ context.Context, regNo string) (*Patient, error) {
	if p, ok := m.patients[regNo]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetKin(_ context.Context, regNo string) (*NextOfKin, error) {
	if k, ok := m.kin[regNo]; ok {
		return k, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetGuardian(_ context.Context, regNo string) (*Guardian, error) {
	if g, ok := m.guardians[regNo]; ok {
		return g, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetHistory(_ context.Context, regNo string) (*MedicalHistory, error) {
	if h, ok := m.histories[regNo]; ok {
		return h, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		if strings.Contains(p.Surname, query) || strings.Contains(p.RegNo, query) {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateKin(_ context.Context, k *NextOfKin) error {
	if _, ok := m.kin[k.RegNo]; !ok {
		return ErrNotFound
	}
	m.kin[k.RegNo] = k
	return nil
}

func (m *mockRepo) UpdateGuardian(_ context.Context, g *Guardian) error {
	if _, ok := m.guardians[g.RegNo]; !ok {
		return ErrNotFound
	}
	m.guardians[g.RegNo] = g
	return nil
}

func (m *mockRepo) UpdateHistory(_ context.Context, h *MedicalHistory) error {
	if _, ok := m.histories[h.RegNo]; !ok {
		return ErrNotFound
	}
	m.histories[h.RegNo] = h
	return nil
}

func validPatient() *Patient {
	return &Patient{
		RegNo:         "20240001234",
		Surname:       "Okafor",
		FirstName:     "Amaka",
		Sex:           "Female",
		MaritalStatus: "Single",
		DOBDay:        12,
		DOBMonth:      4,
		DOBYear:       1991,
		Phone:         "08031234567",
	}
}

func TestRegister_CreatesPatientAndSatellites(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	verrs, err := svc.Register(context.Background(), validPatient())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(verrs) != 0 {
		t.Fatalf("unexpected validation errors: %v", verrs)
	}

	if _, ok := repo.patients["20240001234"]; !ok {
		t.Error("patient row not created")
	}
	if _, ok := repo.kin["20240001234"]; !ok {
		t.Error("next of kin row not created")
	}
	if _, ok := repo.guardians["20240001234"]; !ok {
		t.Error("guardian row not created")
	}
	if _, ok := repo.histories["20240001234"]; !ok {
		t.Error("medical history row not created")
	}
}

func TestRegister_CollectsAllValidationErrors(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	p := validPatient()
	p.RegNo = "123"
	p.Phone = "nope"
	p.Sex = "other"

	verrs, err := svc.Register(context.Background(), p)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(verrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(verrs), verrs)
	}
	if len(repo.patients) != 0 {
		t.Error("invalid patient should not be persisted")
	}
}

func TestRegister_RejectsDuplicateRegNo(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	if _, err := svc.Register(context.Background(), validPatient()); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), validPatient())
	if !errors.Is(err, ErrDuplicateRegNo) {
		t.Fatalf("expected ErrDuplicateRegNo, got %v", err)
	}
}

func TestValidate_RegNoLength(t *testing.T) {
	cases := []struct {
		regNo string
		ok    bool
	}{
		{"20240001234", true},
		{"2024000123", false},
		{"202400012345", false},
		{"2024000123a", false},
		{"", false},
	}
	for _, tc := range cases {
		p := validPatient()
		p.RegNo = tc.regNo
		errs := p.Validate()
		if tc.ok && len(errs) != 0 {
			t.Errorf("regNo %q: unexpected errors %v", tc.regNo, errs)
		}
		if !tc.ok && len(errs) == 0 {
			t.Errorf("regNo %q: expected a validation error", tc.regNo)
		}
	}
}

func TestGet_IncludesSatellites(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	if _, err := svc.Register(context.Background(), validPatient()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := svc.UpdateNextOfKin(context.Background(), &NextOfKin{
		RegNo: "20240001234", Name: "Chidi Okafor", Relationship: "Brother",
	}); err != nil {
		t.Fatalf("UpdateNextOfKin failed: %v", err)
	}

	rec, err := svc.Get(context.Background(), "20240001234")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Patient.Surname != "Okafor" {
		t.Errorf("surname = %q", rec.Patient.Surname)
	}
	if rec.Kin.Name != "Chidi Okafor" {
		t.Errorf("kin name = %q", rec.Kin.Name)
	}
}

func TestIdentify_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Identify(context.Background(), "00000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_SearchesWhenQueryGiven(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	if _, err := svc.Register(context.Background(), validPatient()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, total, err := svc.List(context.Background(), "Okafor", 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("expected one match, got %d", len(got))
	}

	got, _, err = svc.List(context.Background(), "Nwosu", 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}
