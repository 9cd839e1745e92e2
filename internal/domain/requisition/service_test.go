package requisition

import (
	"context"
	"errors"
	"regexp"
	"testing"
)

type mockRepo struct {
	reqs      map[int64]*Requisition
	samples   map[string]int64
	nextID    int64
	failFirst int
}

func newMockRepo() *mockRepo {
	return &mockRepo{reqs: make(map[int64]*Requisition), samples: make(map[string]int64)}
}

func (m *mockRepo) Create(_ context.Context, r *Requisition) error {
	if m.failFirst > 0 {
		m.failFirst--
		return ErrDuplicateSample
	}
	if _, taken := m.samples[r.SampleID]; taken {
		return ErrDuplicateSample
	}
	m.nextID++
	r.ID = m.nextID
	m.reqs[r.ID] = r
	m.samples[r.SampleID] = r.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Requisition, error) {
	if r, ok := m.reqs[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetBySampleID(_ context.Context, sampleID string) (*Requisition, error) {
	if id, ok := m.samples[sampleID]; ok {
		return m.reqs[id], nil
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Requisition, int, error) {
	var out []*Requisition
	for _, r := range m.reqs {
		switch filter {
		case FilterPending:
			if r.Status != StatusPending {
				continue
			}
		case FilterProcessed:
			if r.Status != StatusPublished {
				continue
			}
		case FilterArchived:
			if r.Status != StatusArchived {
				continue
			}
		case FilterAll:
			if r.Status == StatusArchived {
				continue
			}
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockRepo) PendingCount(_ context.Context) (int, error) {
	n := 0
	for _, r := range m.reqs {
		if r.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) SetStatus(_ context.Context, id int64, next Status, from ...Status) (bool, error) {
	r, ok := m.reqs[id]
	if !ok {
		return false, nil
	}
	if len(from) == 0 {
		r.Status = next
		return true, nil
	}
	for _, f := range from {
		if r.Status == f {
			r.Status = next
			return true, nil
		}
	}
	return false, nil
}

type mockCatalog struct {
	badTest bool
}

func (m *mockCatalog) Resolve(_ context.Context, testID, categoryID, sampleTypeID int64) (*CatalogNames, error) {
	if m.badTest {
		return nil, errors.New("no such test")
	}
	return &CatalogNames{
		TestName:       "Full Blood Count",
		CategoryName:   "Haematology",
		SampleTypeName: "Whole Blood",
		BiosafetyLevel: 2,
	}, nil
}

func (m *mockCatalog) BiosafetyLevel(_ context.Context, testID int64) (int, error) {
	return 2, nil
}

type orderCall struct {
	orderID, requisitionID int64
}

func newTestService(repo *mockRepo, cat *mockCatalog, orderCalls *[]orderCall) *Service {
	return NewService(repo, cat,
		PatientDirectoryFunc(func(_ context.Context, regNo string) (string, error) {
			if regNo == "20240001234" {
				return "Okafor Amaka", nil
			}
			return "", errors.New("no such patient")
		}),
		OfficerNamerFunc(func(_ context.Context, userID int64, role string) string {
			if userID == 7 {
				return "Ngozi Bello"
			}
			return "Unknown Officer"
		}),
		PhysicianNamerFunc(func(_ context.Context, doctorID int64) (string, error) {
			if doctorID == 3 {
				return "Dr. Chidi Eze", nil
			}
			return "", errors.New("no such doctor")
		}),
		OrderLinkerFunc(func(_ context.Context, orderID, requisitionID int64) error {
			if orderCalls != nil {
				*orderCalls = append(*orderCalls, orderCall{orderID, requisitionID})
			}
			return nil
		}),
		nil)
}

func validInput() *CreateInput {
	return &CreateInput{PatientReg: "20240001234", LabTestID: 1, CategoryID: 1, SampleTypeID: 1}
}

var sixDigits = regexp.MustCompile(`^[1-9]\d{5}$`)

func TestCreate_AssignsSampleIDAndSnapshots(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !sixDigits.MatchString(q.SampleID) {
		t.Errorf("sample id %q is not six digits", q.SampleID)
	}
	if q.PatientName != "Okafor Amaka" {
		t.Errorf("patient name = %q", q.PatientName)
	}
	if q.TestName != "Full Blood Count" || q.CategoryName != "Haematology" || q.SampleTypeName != "Whole Blood" {
		t.Errorf("catalog snapshot wrong: %q %q %q", q.TestName, q.CategoryName, q.SampleTypeName)
	}
	if q.Status != StatusPending {
		t.Errorf("status = %d, want pending", q.Status)
	}
}

func TestCreate_RetriesSampleIDCollision(t *testing.T) {
	repo := newMockRepo()
	repo.failFirst = 2
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed after collisions: %v", err)
	}
	if q.ID == 0 {
		t.Fatal("requisition id not assigned")
	}
}

func TestCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newMockRepo()
	repo.failFirst = createAttempts
	svc := newTestService(repo, &mockCatalog{}, nil)

	_, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if !errors.Is(err, ErrDuplicateSample) {
		t.Fatalf("expected ErrDuplicateSample, got %v", err)
	}
}

func TestCreate_BrokenReferences(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockCatalog{}, nil)
	in := validInput()
	in.PatientReg = "99999999999"
	if _, err := svc.Create(context.Background(), in, 7, "lab_attendant"); !errors.Is(err, ErrReference) {
		t.Errorf("unknown patient: expected ErrReference, got %v", err)
	}

	svc = newTestService(newMockRepo(), &mockCatalog{badTest: true}, nil)
	if _, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant"); !errors.Is(err, ErrReference) {
		t.Errorf("bad catalog reference: expected ErrReference, got %v", err)
	}
}

func TestCreate_MarksLinkedOrderReceived(t *testing.T) {
	var calls []orderCall
	svc := newTestService(newMockRepo(), &mockCatalog{}, &calls)

	in := validInput()
	orderID := int64(42)
	in.OrderID = &orderID

	q, err := svc.Create(context.Background(), in, 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(calls) != 1 || calls[0].orderID != 42 || calls[0].requisitionID != q.ID {
		t.Fatalf("order link calls = %+v", calls)
	}
}

func TestGet_DetailProjection(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	d, err := svc.Get(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d.OfficerName != "Ngozi Bello" {
		t.Errorf("officer name = %q", d.OfficerName)
	}
	if d.BiosafetyLevel != 2 {
		t.Errorf("biosafety level = %d", d.BiosafetyLevel)
	}
	if d.StatusLabel != "Pending Results" {
		t.Errorf("status label = %q", d.StatusLabel)
	}
}

func TestCreate_PhysicianSnapshot(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	in := validInput()
	doctorID := int64(3)
	in.PhysicianID = &doctorID
	q, err := svc.Create(context.Background(), in, 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if q.Physician != "Dr. Chidi Eze" {
		t.Errorf("physician = %q", q.Physician)
	}

	d, err := svc.Get(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d.Physician != "Dr. Chidi Eze" {
		t.Errorf("detail physician = %q", d.Physician)
	}

	unknown := int64(404)
	in = validInput()
	in.PhysicianID = &unknown
	if _, err := svc.Create(context.Background(), in, 7, "lab_attendant"); !errors.Is(err, ErrReference) {
		t.Errorf("unknown physician: expected ErrReference, got %v", err)
	}
}

func TestCreate_RejectsBadCollectionTime(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	in := validInput()
	in.CollectedAt = "yesterday"
	if _, err := svc.Create(context.Background(), in, 7, "lab_attendant"); err == nil {
		t.Fatal("expected error for malformed collection time")
	}

	in = validInput()
	in.CollectedAt = "2026-08-28T09:30:00Z"
	q, err := svc.Create(context.Background(), in, 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if q.CollectedAt.Hour() != 9 || q.CollectedAt.Minute() != 30 {
		t.Errorf("collected at = %v", q.CollectedAt)
	}
}

func TestDetail_NAFallbacks(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 99, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	repo.reqs[q.ID].CategoryName = ""

	d, err := svc.Get(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if d.CategoryName != "N/A" {
		t.Errorf("category = %q, want N/A", d.CategoryName)
	}
	if d.Physician != "N/A" {
		t.Errorf("physician = %q, want N/A", d.Physician)
	}
	if d.OfficerName != "Unknown Officer" {
		t.Errorf("officer = %q, want Unknown Officer", d.OfficerName)
	}
}

func TestPublish_Idempotent(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Publish(context.Background(), q.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	// Publishing again replays the same move and stays Published.
	if err := svc.Publish(context.Background(), q.ID); err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if repo.reqs[q.ID].Status != StatusPublished {
		t.Errorf("status = %d, want published", repo.reqs[q.ID].Status)
	}
	if err := svc.Publish(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing requisition: expected ErrNotFound, got %v", err)
	}
}

func TestArchiveLifecycle(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Archive(context.Background(), q.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	// Archiving an archived requisition is a no-op, not an error.
	if err := svc.Archive(context.Background(), q.ID); err != nil {
		t.Fatalf("double archive: %v", err)
	}
	if repo.reqs[q.ID].Status != StatusArchived {
		t.Errorf("status = %d, want archived", repo.reqs[q.ID].Status)
	}
	if err := svc.Unarchive(context.Background(), q.ID); err != nil {
		t.Fatalf("Unarchive failed: %v", err)
	}
	if repo.reqs[q.ID].Status != StatusPending {
		t.Errorf("status after unarchive = %d, want pending", repo.reqs[q.ID].Status)
	}
	if err := svc.Archive(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing requisition: expected ErrNotFound, got %v", err)
	}
}

func TestList_AllExcludesArchived(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	a, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := svc.Archive(context.Background(), a.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	got, total, err := svc.List(context.Background(), FilterAll, 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("all filter: got %d requisitions, want 1", len(got))
	}

	got, _, err = svc.List(context.Background(), FilterArchived, 20, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("archived filter: got %d requisitions, want 1", len(got))
	}
}

func TestList_RejectsUnknownFilter(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockCatalog{}, nil)
	if _, _, err := svc.List(context.Background(), ListFilter("bogus"), 20, 0); err == nil {
		t.Fatal("expected error for unknown filter")
	}
}

func TestLookupBySampleID(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockCatalog{}, nil)

	q, err := svc.Create(context.Background(), validInput(), 7, "lab_attendant")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	d, err := svc.LookupBySampleID(context.Background(), q.SampleID)
	if err != nil {
		t.Fatalf("LookupBySampleID failed: %v", err)
	}
	if d.ID != q.ID {
		t.Errorf("lookup returned id %d, want %d", d.ID, q.ID)
	}

	if _, err := svc.LookupBySampleID(context.Background(), "000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewSampleID_Range(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := newSampleID()
		if err != nil {
			t.Fatalf("newSampleID failed: %v", err)
		}
		if !sixDigits.MatchString(id) {
			t.Fatalf("sample id %q out of range", id)
		}
	}
}
