package catalog

import (
	"context"
	"errors"
	"testing"
)

type mockRepo struct {
	categories  map[int64]*TestCategory
	sampleTypes map[int64]*SampleType
	tests       map[int64]*LabTest
	units       map[int64]*Unit
	params      map[int64]*Parameter
	templates   map[int64]*CommentTemplate
	links       map[int64][]int64
	nextID      int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		categories:  make(map[int64]*TestCategory),
		sampleTypes: make(map[int64]*SampleType),
		tests:       make(map[int64]*LabTest),
		units:       make(map[int64]*Unit),
		params:      make(map[int64]*Parameter),
		templates:   make(map[int64]*CommentTemplate),
		links:       make(map[int64][]int64),
	}
}

func (m *mockRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockRepo) CreateCategory(_ context.Context, c *TestCategory) error {
	c.ID = m.id()
	m.categories[c.ID] = c
	return nil
}

func (m *mockRepo) GetCategory(_ context.Context, id int64) (*TestCategory, error) {
	if c, ok := m.categories[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListCategories(_ context.Context) ([]*TestCategory, error) {
	var out []*TestCategory
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockRepo) CreateSampleType(_ context.Context, s *SampleType) error {
	s.ID = m.id()
	m.sampleTypes[s.ID] = s
	return nil
}

func (m *mockRepo) GetSampleType(_ context.Context, id int64) (*SampleType, error) {
	if s, ok := m.sampleTypes[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListSampleTypes(_ context.Context) ([]*SampleType, error) {
	var out []*SampleType
	for _, s := range m.sampleTypes {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockRepo) CreateTest(_ context.Context, t *LabTest) error {
	t.ID = m.id()
	m.tests[t.ID] = t
	return nil
}

func (m *mockRepo) GetTest(_ context.Context, id int64) (*LabTest, error) {
	if t, ok := m.tests[id]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListTests(_ context.Context) ([]*LabTest, error) {
	var out []*LabTest
	for _, t := range m.tests {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) ListTestsByCategory(_ context.Context, categoryID int64) ([]*LabTest, error) {
	var out []*LabTest
	for _, t := range m.tests {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockRepo) LinkSample(_ context.Context, testID, sampleTypeID int64) error {
	m.links[testID] = append(m.links[testID], sampleTypeID)
	return nil
}

func (m *mockRepo) ListSamplesForTest(_ context.Context, testID int64) ([]*SampleType, error) {
	var out []*SampleType
	for _, id := range m.links[testID] {
		out = append(out, m.sampleTypes[id])
	}
	return out, nil
}

func (m *mockRepo) CreateUnit(_ context.Context, u *Unit) error {
	u.ID = m.id()
	m.units[u.ID] = u
	return nil
}

func (m *mockRepo) GetUnit(_ context.Context, id int64) (*Unit, error) {
	if u, ok := m.units[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListUnits(_ context.Context) ([]*Unit, error) {
	var out []*Unit
	for _, u := range m.units {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepo) CreateParameter(_ context.Context, p *Parameter) error {
	p.ID = m.id()
	m.params[p.ID] = p
	return nil
}

func (m *mockRepo) ListParametersForTest(_ context.Context, testID int64) ([]*Parameter, error) {
	var out []*Parameter
	for _, p := range m.params {
		if p.LabTestID != testID {
			continue
		}
		cp := *p
		if p.UnitID != nil {
			if u, ok := m.units[*p.UnitID]; ok {
				cp.Unit = u.Name
				cp.BaseUnit = u.BaseUnit
				cp.ConversionFactor = u.ConversionFactor
			}
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepo) CreateCommentTemplate(_ context.Context, t *CommentTemplate) error {
	t.ID = m.id()
	m.templates[t.ID] = t
	return nil
}

func (m *mockRepo) ListCommentTemplates(_ context.Context) ([]*CommentTemplate, error) {
	var out []*CommentTemplate
	for _, t := range m.templates {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockRepo) DeleteCommentTemplate(_ context.Context, id int64) error {
	if _, ok := m.templates[id]; !ok {
		return ErrNotFound
	}
	delete(m.templates, id)
	return nil
}

func seedCatalog(t *testing.T, repo *mockRepo, svc *Service) (*TestCategory, *SampleType) {
	t.Helper()
	cat := &TestCategory{Name: "Haematology"}
	if err := svc.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	st := &SampleType{Name: "Whole Blood"}
	if err := svc.CreateSampleType(context.Background(), st); err != nil {
		t.Fatalf("CreateSampleType failed: %v", err)
	}
	return cat, st
}

func TestCreateTest_LinksSampleTypes(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	cat, st := seedCatalog(t, repo, svc)

	test := &LabTest{Name: "Full Blood Count", CategoryID: cat.ID, BiosafetyLevel: 2, Price: 3500}
	if err := svc.CreateTest(context.Background(), test, []int64{st.ID}); err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}
	if test.ID == 0 {
		t.Fatal("test id not assigned")
	}

	samples, err := svc.ListSamplesForTest(context.Background(), test.ID)
	if err != nil {
		t.Fatalf("ListSamplesForTest failed: %v", err)
	}
	if len(samples) != 1 || samples[0].Name != "Whole Blood" {
		t.Fatalf("unexpected samples: %+v", samples)
	}
}

func TestCreateTest_RejectsUnknownCategory(t *testing.T) {
	svc := NewService(newMockRepo())
	test := &LabTest{Name: "FBC", CategoryID: 99, BiosafetyLevel: 2}
	err := svc.CreateTest(context.Background(), test, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTest_RejectsBadBiosafetyLevel(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	cat, _ := seedCatalog(t, repo, svc)

	test := &LabTest{Name: "FBC", CategoryID: cat.ID, BiosafetyLevel: 5}
	if err := svc.CreateTest(context.Background(), test, nil); err == nil {
		t.Fatal("expected validation error for biosafety level 5")
	}
}

func TestCreateParameter_RequiresExistingTest(t *testing.T) {
	svc := NewService(newMockRepo())
	err := svc.CreateParameter(context.Background(), &Parameter{LabTestID: 42, Name: "WBC"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUnit_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.CreateUnit(context.Background(), &Unit{BaseUnit: "g/L"}); err == nil {
		t.Fatal("expected error for unit without a name")
	}
	if err := svc.CreateUnit(context.Background(), &Unit{Name: "g/dL", ConversionFactor: -1}); err == nil {
		t.Fatal("expected error for non-positive conversion factor")
	}

	u := &Unit{Name: "g/dL", BaseUnit: "g/L", ConversionFactor: 10}
	if err := svc.CreateUnit(context.Background(), u); err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("unit id not assigned")
	}

	units, err := svc.ListUnits(context.Background())
	if err != nil {
		t.Fatalf("ListUnits failed: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
}

func TestCreateParameter_ResolvesUnit(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	cat, _ := seedCatalog(t, repo, svc)

	test := &LabTest{Name: "FBC", CategoryID: cat.ID, BiosafetyLevel: 2}
	if err := svc.CreateTest(context.Background(), test, nil); err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}

	unknown := int64(404)
	err := svc.CreateParameter(context.Background(), &Parameter{LabTestID: test.ID, Name: "HGB", UnitID: &unknown})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown unit: expected ErrNotFound, got %v", err)
	}

	u := &Unit{Name: "g/dL", BaseUnit: "g/L", ConversionFactor: 10}
	if err := svc.CreateUnit(context.Background(), u); err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}
	if err := svc.CreateParameter(context.Background(), &Parameter{LabTestID: test.ID, Name: "HGB", UnitID: &u.ID}); err != nil {
		t.Fatalf("CreateParameter failed: %v", err)
	}

	params, err := svc.ListParametersForTest(context.Background(), test.ID)
	if err != nil {
		t.Fatalf("ListParametersForTest failed: %v", err)
	}
	if len(params) != 1 {
		t.Fatalf("got %d parameters, want 1", len(params))
	}
	p := params[0]
	if p.Unit != "g/dL" || p.BaseUnit != "g/L" || p.ConversionFactor != 10 {
		t.Errorf("unit not resolved: %+v", p)
	}
}

func TestResolve_ReturnsAllNames(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	cat, st := seedCatalog(t, repo, svc)

	test := &LabTest{Name: "Malaria Parasite", CategoryID: cat.ID, BiosafetyLevel: 2}
	if err := svc.CreateTest(context.Background(), test, []int64{st.ID}); err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}

	gotTest, gotCat, gotSample, err := svc.Resolve(context.Background(), test.ID, cat.ID, st.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if gotTest.Name != "Malaria Parasite" || gotCat.Name != "Haematology" || gotSample.Name != "Whole Blood" {
		t.Fatalf("unexpected resolution: %q %q %q", gotTest.Name, gotCat.Name, gotSample.Name)
	}
}

func TestResolve_BrokenReference(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	cat, st := seedCatalog(t, repo, svc)

	_, _, _, err := svc.Resolve(context.Background(), 404, cat.ID, st.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCommentTemplates_Lifecycle(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.CreateCommentTemplate(context.Background(), &CommentTemplate{}); err == nil {
		t.Fatal("expected error for empty template text")
	}

	tpl := &CommentTemplate{Text: "Repeat test in 2 weeks."}
	if err := svc.CreateCommentTemplate(context.Background(), tpl); err != nil {
		t.Fatalf("CreateCommentTemplate failed: %v", err)
	}
	if err := svc.DeleteCommentTemplate(context.Background(), tpl.ID); err != nil {
		t.Fatalf("DeleteCommentTemplate failed: %v", err)
	}
	err := svc.DeleteCommentTemplate(context.Background(), tpl.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
